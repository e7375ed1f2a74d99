package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"

	"inkwell/pkg/errors"
)

// Serialized blob framing. Both formats are a fixed 8-byte magic
// followed by a JSON payload. The attachments-capable format embeds
// image bytes; the styling-only format carries runs alone and is used
// whenever no attachments are present, keeping blobs small.
var (
	magicAttachments = []byte("INKRTA1\n")
	magicStyledOnly  = []byte("INKRTS1\n")
)

type runPayload struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Link   string `json:"link,omitempty"`
}

type attachmentPayload struct {
	Index       int    `json:"index"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data"`
}

type blobPayload struct {
	Text        string              `json:"text"`
	Runs        []runPayload        `json:"runs,omitempty"`
	Attachments []attachmentPayload `json:"attachments,omitempty"`
}

// Encode serializes styled text into a rich blob. The
// attachments-capable format is chosen when the text embeds images,
// the styling-only format otherwise.
func Encode(st *StyledText) ([]byte, error) {
	if err := validate(st.text, st.runs, st.attachments); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeCodec, "ENCODE_FAILED", "styled text is unencodable")
	}

	payload := blobPayload{Text: st.String()}
	for _, r := range st.runs {
		payload.Runs = append(payload.Runs, runPayload{
			Start:  r.Start,
			End:    r.End,
			Bold:   r.Style.Bold,
			Italic: r.Style.Italic,
			Link:   r.Style.Link,
		})
	}

	magic := magicStyledOnly
	if st.HasAttachments() {
		magic = magicAttachments
		for _, a := range st.attachments {
			payload.Attachments = append(payload.Attachments, attachmentPayload{
				Index:       a.Index,
				Filename:    a.Filename,
				ContentType: a.ContentType,
				Data:        a.Data,
			})
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeCodec, "ENCODE_FAILED", "failed to marshal rich blob")
	}

	blob := make([]byte, 0, len(magic)+len(data))
	blob = append(blob, magic...)
	blob = append(blob, data...)
	return blob, nil
}

// Decode parses a rich blob back into styled text. The
// attachments-capable format is attempted first, then the
// styling-only format. A failed decode never partially applies: the
// returned StyledText is either complete or nil.
func Decode(blob []byte) (*StyledText, error) {
	switch {
	case bytes.HasPrefix(blob, magicAttachments):
		return decodePayload(blob[len(magicAttachments):], true)
	case bytes.HasPrefix(blob, magicStyledOnly):
		return decodePayload(blob[len(magicStyledOnly):], false)
	}
	return nil, errors.New(errors.ErrTypeCodec, "UNRECOGNIZED_FORMAT", "unrecognized rich blob format")
}

func decodePayload(data []byte, allowAttachments bool) (*StyledText, error) {
	var payload blobPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeCodec, "DECODE_FAILED", "malformed rich blob payload")
	}
	if !allowAttachments && len(payload.Attachments) > 0 {
		return nil, errors.New(errors.ErrTypeCodec, "DECODE_FAILED", "styling-only blob carries attachments")
	}

	st := New(payload.Text)
	for _, r := range payload.Runs {
		st.runs = append(st.runs, StyleRun{
			Start: r.Start,
			End:   r.End,
			Style: Style{Bold: r.Bold, Italic: r.Italic, Link: r.Link},
		})
	}
	for _, a := range payload.Attachments {
		st.attachments = append(st.attachments, Attachment{
			Index:       a.Index,
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Data:        a.Data,
		})
	}

	if err := validate(st.text, st.runs, st.attachments); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeCodec, "DECODE_FAILED", "rich blob payload out of range")
	}
	st.runs = normalizeRuns(st.runs)
	return st, nil
}

// validate checks run and attachment bounds against the text length.
func validate(text []rune, runs []StyleRun, atts []Attachment) error {
	n := len(text)
	for _, r := range runs {
		if r.Start < 0 || r.End > n || r.Start >= r.End {
			return fmt.Errorf("style run [%d,%d) out of range for length %d", r.Start, r.End, n)
		}
	}
	for _, a := range atts {
		if a.Index < 0 || a.Index >= n {
			return fmt.Errorf("attachment index %d out of range for length %d", a.Index, n)
		}
		if text[a.Index] != AttachmentRune {
			return fmt.Errorf("attachment index %d does not sit on a placeholder rune", a.Index)
		}
		if len(a.Data) == 0 {
			return fmt.Errorf("attachment at %d has no data", a.Index)
		}
	}
	return nil
}
