package core

import "errors"

// ErrMalformedMessage marks input that cannot be parsed as a mail message
// at all. It is the only fatal error class in the pipeline: no partial
// report is produced. Everything recoverable degrades to a finding
// instead (ARCHIVE_UNREADABLE, AUTH_UNPARSEABLE).
var ErrMalformedMessage = errors.New("malformed mail message")
