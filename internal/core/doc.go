// Package core runs one SQL-dump-to-workbook conversion.
//
// It is independent of the HTTP layer: web handlers, CLI tools and tests all
// drive it through [Service.Convert].
//
// # Pipeline
//
// A conversion moves through fixed stages, and any failure ends it:
//
//  1. Validating: [Request.Validate] checks the file and credentials. Nothing
//     is written to disk before this passes.
//  2. Staging: the uploaded script is decompressed when it is a gzip, bzip2,
//     xz or zstd stream and copied into a temp file, minus a leading UTF-8 BOM.
//  3. Loading: the [ScriptLoader] runs the script with the database's CLI
//     client and reports the database name it created.
//  4. Exporting: the [WorkbookExporter] streams every table into a temp
//     workbook.
//
// On failure every temp file created so far is removed before the error is
// returned. On success the caller owns the returned [Conversion] and must
// call [Conversion.Close] once the workbook has been delivered.
//
// # Errors
//
// Only [ValidationError] is the caller's fault. Everything else (client
// exit status, name resolution, connection, empty database) passes through
// unchanged so callers can inspect it with errors.Is / errors.As.
package core
