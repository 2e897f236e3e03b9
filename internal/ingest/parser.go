package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"github.com/mikey/phishscan/internal/core"
)

// Parser decodes raw mail source into a core.ParsedMessage using enmime.
// It tolerates structurally odd but decodable input: missing headers,
// absent bodies and empty attachment lists are normal, not errors.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a message parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse implements core.MessageParser.
func (p *Parser) Parse(raw []byte) (*core.ParsedMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedMessage, err)
	}

	keys := env.GetHeaderKeys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no header block", core.ErrMalformedMessage)
	}

	headers := make(map[string][]string, len(keys))
	for _, key := range keys {
		name := strings.ToLower(key)
		if _, done := headers[name]; done {
			continue
		}
		headers[name] = env.GetHeaderValues(key)
	}

	msg := &core.ParsedMessage{
		Headers:    headers,
		Subject:    env.GetHeader("Subject"),
		From:       env.GetHeader("From"),
		ReturnPath: env.GetHeader("Return-Path"),
		ReplyTo:    env.GetHeader("Reply-To"),
		BodyText:   env.Text,
		BodyHTML:   env.HTML,
	}

	if msg.BodyText == "" && msg.BodyHTML != "" {
		if text, err := html2text.FromString(msg.BodyHTML, html2text.Options{TextOnly: true}); err == nil {
			msg.BodyText = text
		} else {
			p.logger.Warn("Failed to down-convert HTML body", zap.Error(err))
		}
	}

	// Inline parts carrying a filename are attachments in practice;
	// phishing mail often hides payloads as inline content.
	for _, part := range append(env.Attachments, env.Inlines...) {
		if part.FileName == "" {
			continue
		}
		msg.Attachments = append(msg.Attachments, core.AttachmentRef{
			Filename:            part.FileName,
			DeclaredContentType: part.ContentType,
			Content:             part.Content,
			Size:                int64(len(part.Content)),
		})
	}

	for _, e := range env.Errors {
		p.logger.Debug("Parser tolerated message defect",
			zap.String("name", e.Name),
			zap.String("detail", e.Detail),
			zap.Bool("severe", e.Severe))
	}

	p.logger.Debug("Parsed message",
		zap.Int("headers", len(headers)),
		zap.Int("attachments", len(msg.Attachments)),
		zap.Int("body_text_bytes", len(msg.BodyText)),
		zap.Int("body_html_bytes", len(msg.BodyHTML)))

	return msg, nil
}
