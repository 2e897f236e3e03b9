package core

// Stable finding codes. The weight table in the configuration document is
// keyed by these; an unconfigured code scores zero.
const (
	// Header findings.
	CodeSPFFail                = "SPF_FAIL"
	CodeDKIMFail               = "DKIM_FAIL"
	CodeDMARCFail              = "DMARC_FAIL"
	CodeAuthMissing            = "AUTH_MISSING"
	CodeAuthUnparseable        = "AUTH_UNPARSEABLE"
	CodeFromReturnPathMismatch = "FROM_RETURNPATH_MISMATCH"
	CodeDisplayNameSpoof       = "DISPLAY_NAME_SPOOF"

	// URL findings. CodeSuspiciousTLD is shared with the header analyzer,
	// which applies it to the sending domain.
	CodeSuspiciousTLD    = "SUSPICIOUS_TLD"
	CodeURLShortener     = "URL_SHORTENER"
	CodeDeceptiveKeyword = "DECEPTIVE_KEYWORD"
	CodeIPLiteralURL     = "IP_LITERAL_URL"
	CodeNonstandardPort  = "NONSTANDARD_PORT"
	CodeURLTextMismatch  = "URL_TEXT_MISMATCH"

	// Attachment findings.
	CodeDangerousExtension    = "DANGEROUS_EXTENSION"
	CodeTypeExtensionMismatch = "TYPE_EXTENSION_MISMATCH"
	CodeExecutableInZip       = "EXECUTABLE_IN_ZIP"
	CodeArchiveTooLarge       = "ARCHIVE_TOO_LARGE"
	CodeArchiveUnreadable     = "ARCHIVE_UNREADABLE"
)
