// Package services defines shared utilities consumed by the pipeline stages
// and the external API integrations beneath it.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that distinguish upstream
//     failures from configuration and validation problems.
//   - The HTTP clients for the product-search API and the language model,
//     each isolated in its own subpackage behind a narrow interface.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, retries, timeouts) stays uniform across the pipeline.
package services
