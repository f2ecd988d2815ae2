// Package logger builds slog loggers with the toolkit's conventions: JSON in
// production, text in development, and context extractors that annotate every
// record with request-scoped values such as the active organization id.
//
//	log := logger.New(
//		logger.WithProduction("dealerkit"),
//		logger.WithContextExtractors(tenancy.LoggerExtractor()),
//	)
//	slog.SetDefault(log)
package logger
