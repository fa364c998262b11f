// Package imaging turns application icons into transport-friendly blobs.
//
// Icons are decoded from disk through an IconCache, drawn onto an RGBA
// bitmap at their intrinsic size (optionally capped), compressed as a
// lossless PNG and encoded as base64 without line breaks.
//
// # Supported Formats
//
// PNG, JPEG, GIF, BMP and WebP files are decoded. SVG and XPM icons are not;
// loading them returns an error, which callers treat as "no icon".
//
// # Thread Safety
//
// The IconCache type is safe for concurrent use. Render and EncodePNGBase64
// are stateless.
package imaging
