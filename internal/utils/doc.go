// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the Viper-backed ConfigurationLoader, the dotenv EnvironmentFileLoader,
// the zap LoggerFactory, and the CommandContextAccessor that carries per-invocation
// values such as the run identifier between Cobra commands.
package utils
