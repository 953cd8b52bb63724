// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive attribute values (cookies, tokens, secrets)
//   - Redaction of credentials embedded in logged URLs
//   - Configurable log levels with verbose mode support
//
// # Security Features
//
// The SecureHandler sanitizes log output before it reaches the writer:
//   - Attributes whose key names a credential are masked entirely
//   - Values that look like tokens (JWT, bearer, basic auth, access keys)
//     are masked entirely
//   - URLs keep their host and path, but a userinfo password and the values
//     of query parameters such as token, key or signature are masked
//
// Hrefs from filtered documents are logged at debug level, and documents
// regularly carry signed or tokenized links. Even in verbose mode those
// secrets are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("link unwrapped",
//	    "href", "https://cdn.example.com/a.png?token=abc", // token value is masked
//	)
//
//	slog.SetDefault(logger)
package log
