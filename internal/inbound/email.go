// Package inbound turns forwarded supplier emails into ingestible attachments.
package inbound

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/encoding"
)

var ErrNoAttachments = errors.New("message has no invoice attachments")

// maxDepth bounds multipart nesting.
const maxDepth = 5

var decoder = &mime.WordDecoder{CharsetReader: encoding.CharsetReader}

type Attachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

type Message struct {
	Subject     string
	From        string
	ReceivedAt  time.Time
	Attachments []Attachment
}

// Parse reads an RFC 5322 message and keeps the attachments that can carry an
// invoice: PDFs, images and NF-e XML.
func Parse(r io.Reader) (*Message, error) {
	m, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	msg := &Message{
		Subject: decodeHeader(m.Header.Get("Subject")),
		From:    decodeHeader(m.Header.Get("From")),
	}

	if addr, err := (&mail.AddressParser{WordDecoder: decoder}).Parse(m.Header.Get("From")); err == nil {
		msg.From = addr.Address
	}

	if date, err := m.Header.Date(); err == nil {
		msg.ReceivedAt = date.UTC()
	}

	if err := msg.walk(m.Header, m.Body, 0); err != nil {
		return nil, err
	}

	if len(msg.Attachments) == 0 {
		return nil, ErrNoAttachments
	}

	return msg, nil
}

type header interface {
	Get(key string) string
}

func (msg *Message) walk(h header, body io.Reader, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("multipart nesting deeper than %d", maxDepth)
	}

	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])

		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil
			}

			if err != nil {
				return fmt.Errorf("read part: %w", err)
			}

			if err := msg.walk(part.Header, part, depth+1); err != nil {
				return err
			}
		}
	}

	if inlineOnly(h) {
		return nil
	}

	name := attachmentName(h, params)
	if name == "" && !isInvoiceType(mediaType) {
		return nil
	}

	content, err := io.ReadAll(transferDecoder(h, body))
	if err != nil {
		return fmt.Errorf("read attachment %q: %w", name, err)
	}

	if len(content) == 0 {
		return nil
	}

	contentType := DetectContentType(name, mediaType, content)
	if !isInvoiceType(contentType) {
		slog.Debug("skipping attachment", "file_name", name, "content_type", contentType)
		return nil
	}

	if name == "" {
		name = "attachment" + extension(contentType)
	}

	msg.Attachments = append(msg.Attachments, Attachment{FileName: name, ContentType: contentType, Content: content})

	return nil
}

// DetectContentType trusts a specific declared type and otherwise sniffs the bytes,
// since mail clients often send application/octet-stream.
func DetectContentType(fileName, declared string, content []byte) string {
	if declared != "" && declared != "application/octet-stream" && declared != "text/plain" {
		return declared
	}

	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
	}

	detected := mimetype.Detect(content)
	if detected.Is("text/xml") || detected.Is("application/xml") {
		return "application/xml"
	}

	mediaType, _, _ := mime.ParseMediaType(detected.String())

	return mediaType
}

func isInvoiceType(mediaType string) bool {
	switch {
	case mediaType == "application/pdf",
		mediaType == "application/xml",
		mediaType == "text/xml",
		strings.HasPrefix(mediaType, "image/"):
		return true
	}

	return false
}

func attachmentName(h header, params map[string]string) string {
	if _, dparams, err := mime.ParseMediaType(h.Get("Content-Disposition")); err == nil && dparams["filename"] != "" {
		return filepath.Base(decodeHeader(dparams["filename"]))
	}

	if params["name"] != "" {
		return filepath.Base(decodeHeader(params["name"]))
	}

	return ""
}

// inlineOnly reports embedded parts such as signature logos.
func inlineOnly(h header) bool {
	if h.Get("Content-ID") == "" {
		return false
	}

	disposition, _, _ := mime.ParseMediaType(h.Get("Content-Disposition"))

	return disposition != "attachment"
}

// transferDecoder undoes base64. multipart.Reader already handles quoted-printable.
func transferDecoder(h header, body io.Reader) io.Reader {
	if strings.EqualFold(strings.TrimSpace(h.Get("Content-Transfer-Encoding")), "base64") {
		return base64.NewDecoder(base64.StdEncoding, body)
	}

	return body
}

func decodeHeader(v string) string {
	decoded, err := decoder.DecodeHeader(v)
	if err != nil {
		return strings.TrimSpace(v)
	}

	return strings.TrimSpace(decoded)
}

func extension(contentType string) string {
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}

	return ""
}

// Ingester is the document lifecycle entry point.
type Ingester interface {
	Ingest(ctx context.Context, tenantID uuid.UUID, in document.IngestInput) (*document.Document, error)
}

// Result reports what happened to one attachment.
type Result struct {
	FileName  string
	Document  *document.Document
	Duplicate bool
	// DuplicateOf is nil when the existing document is not known.
	DuplicateOf *uuid.UUID
	Err         error
}

// IngestMessage ingests every attachment independently; one failing attachment
// does not stop the rest.
func IngestMessage(ctx context.Context, ing Ingester, tenantID uuid.UUID, msg *Message) []Result {
	results := make([]Result, 0, len(msg.Attachments))

	for _, a := range msg.Attachments {
		res := Result{FileName: a.FileName}

		doc, err := ing.Ingest(ctx, tenantID, document.IngestInput{
			FileName:     a.FileName,
			ContentType:  a.ContentType,
			Content:      a.Content,
			ReceivedAt:   msg.ReceivedAt,
			EmailSubject: msg.Subject,
			EmailFrom:    msg.From,
		})

		var dup *document.DuplicateError

		switch {
		case errors.As(err, &dup):
			res.Duplicate = true
			if dup.DocumentID != uuid.Nil {
				res.DuplicateOf = &dup.DocumentID
			}
		case err != nil:
			slog.ErrorContext(ctx, "failed to ingest attachment", "file_name", a.FileName, "error", err)
			res.Err = err
		default:
			res.Document = doc
		}

		results = append(results, res)
	}

	return results
}
