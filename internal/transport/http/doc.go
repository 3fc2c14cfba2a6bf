// Package http implements the HTTP handlers of the merge service. Handlers
// stay thin: they parse requests, call the service layer and format the
// response.
//
// # Endpoints
//
//	POST /api/merge          multipart upload, returns the merged CSV
//	POST /api/merge/preview  JSON grids in, JSON preview out
//	GET  /api/health         overall status
//	GET  /api/health/ready   503 until the output directory is writable
//	GET  /api/health/live    process liveness
//	GET  /api/version        build information
//
// # Merge Upload
//
// The multipart form carries one file per table, named movement, turning
// and rotation, plus the experiment parameters as plain fields:
//
//	exposure_time, compound, concentration_B .. concentration_F, sheet
//
// Parameters are checked before any upload is parsed, so a request missing
// a concentration fails with MISSING_PARAMETER without reading the files.
// A successful response is text/csv with a UTF-8 byte order mark and the
// X-Merge-Rows, X-Merge-Warnings and X-Merge-Run-ID headers.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/merge/missing-parameter",
//	    "title": "Missing Experiment Parameters",
//	    "status": 400,
//	    "detail": "missing experiment parameters: concentration_C",
//	    "instance": "/api/merge"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// MergeServiceInterface and against the real service.
package http
