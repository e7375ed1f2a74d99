package richtext

import (
	"fmt"
	"sort"
)

// AttachmentRune is the placeholder character occupying an image
// attachment's position in the visible text, one rune per attachment.
const AttachmentRune = '￼'

// Style describes the formatting applied to a run of text.
type Style struct {
	Bold   bool
	Italic bool
	Link   string
}

// IsZero reports whether the style carries no formatting at all.
func (s Style) IsZero() bool {
	return !s.Bold && !s.Italic && s.Link == ""
}

// StyleRun is a half-open rune range [Start, End) with a non-default style.
type StyleRun struct {
	Start int
	End   int
	Style Style
}

// Attachment is an embedded image anchored at a rune index.
// The text at Index is always AttachmentRune.
type Attachment struct {
	Index       int
	Filename    string
	ContentType string
	Data        []byte
}

// StyledText is the in-memory styled representation of a document body.
// It is the single source of truth during an editing session; plain
// text and serialized blobs are projections derived from it.
//
// Invariants maintained by all mutators: runs are sorted by Start,
// non-overlapping, non-empty and never carry a zero style; attachments
// are sorted by Index and each sits on an AttachmentRune.
type StyledText struct {
	text        []rune
	runs        []StyleRun
	attachments []Attachment
}

// New creates an unstyled StyledText from plain text.
func New(plain string) *StyledText {
	return &StyledText{text: []rune(plain)}
}

// String returns the visible characters, including attachment placeholders.
func (st *StyledText) String() string {
	return string(st.text)
}

// Len returns the length of the visible text in runes.
func (st *StyledText) Len() int {
	return len(st.text)
}

// Runs returns a copy of the style runs.
func (st *StyledText) Runs() []StyleRun {
	out := make([]StyleRun, len(st.runs))
	copy(out, st.runs)
	return out
}

// Attachments returns a copy of the attachment list.
func (st *StyledText) Attachments() []Attachment {
	out := make([]Attachment, len(st.attachments))
	copy(out, st.attachments)
	return out
}

// HasFormatting reports whether any non-default styling is present.
func (st *StyledText) HasFormatting() bool {
	return len(st.runs) > 0
}

// HasAttachments reports whether any image attachments are embedded.
func (st *StyledText) HasAttachments() bool {
	return len(st.attachments) > 0
}

// HasRichContent reports whether the text materially differs from its
// plain characters, i.e. whether it is worth serializing as a rich blob.
func (st *StyledText) HasRichContent() bool {
	return st.HasFormatting() || st.HasAttachments()
}

// StyleAt returns the effective style of the rune at index i.
func (st *StyledText) StyleAt(i int) Style {
	for _, r := range st.runs {
		if i >= r.Start && i < r.End {
			return r.Style
		}
		if r.Start > i {
			break
		}
	}
	return Style{}
}

// SetBold applies or removes bold over [start, end).
func (st *StyledText) SetBold(start, end int, on bool) error {
	return st.apply(start, end, func(s *Style) { s.Bold = on })
}

// SetItalic applies or removes italic over [start, end).
func (st *StyledText) SetItalic(start, end int, on bool) error {
	return st.apply(start, end, func(s *Style) { s.Italic = on })
}

// SetLink attaches a hyperlink target to [start, end). An empty url
// removes the link.
func (st *StyledText) SetLink(start, end int, url string) error {
	return st.apply(start, end, func(s *Style) { s.Link = url })
}

// apply rewrites the run list so that mutate has been applied to the
// style of every rune in [start, end), splitting runs at the range
// boundaries and renormalizing afterwards.
func (st *StyledText) apply(start, end int, mutate func(*Style)) error {
	if start < 0 || end > len(st.text) || start > end {
		return fmt.Errorf("style range [%d,%d) out of bounds for length %d", start, end, len(st.text))
	}
	if start == end {
		return nil
	}

	var out []StyleRun
	cursor := start
	for _, r := range st.runs {
		if r.End <= start || r.Start >= end {
			out = append(out, r)
			continue
		}
		if r.Start < start {
			out = append(out, StyleRun{Start: r.Start, End: start, Style: r.Style})
		}
		ovStart := r.Start
		if ovStart < start {
			ovStart = start
		}
		ovEnd := r.End
		if ovEnd > end {
			ovEnd = end
		}
		// Unstyled gap before this run inside the target range
		if cursor < ovStart {
			s := Style{}
			mutate(&s)
			if !s.IsZero() {
				out = append(out, StyleRun{Start: cursor, End: ovStart, Style: s})
			}
		}
		s := r.Style
		mutate(&s)
		if !s.IsZero() {
			out = append(out, StyleRun{Start: ovStart, End: ovEnd, Style: s})
		}
		cursor = ovEnd
		if r.End > end {
			out = append(out, StyleRun{Start: end, End: r.End, Style: r.Style})
		}
	}
	if cursor < end {
		s := Style{}
		mutate(&s)
		if !s.IsZero() {
			out = append(out, StyleRun{Start: cursor, End: end, Style: s})
		}
	}

	st.runs = normalizeRuns(out)
	return nil
}

// InsertText splices plain text at the given rune index. Runs and
// attachments after the insertion point shift right; inserting inside
// a run extends it.
func (st *StyledText) InsertText(at int, s string) error {
	if at < 0 || at > len(st.text) {
		return fmt.Errorf("insert index %d out of bounds for length %d", at, len(st.text))
	}
	ins := []rune(s)
	if len(ins) == 0 {
		return nil
	}
	n := len(ins)

	text := make([]rune, 0, len(st.text)+n)
	text = append(text, st.text[:at]...)
	text = append(text, ins...)
	text = append(text, st.text[at:]...)
	st.text = text

	for i := range st.runs {
		r := &st.runs[i]
		if r.Start >= at {
			r.Start += n
			r.End += n
		} else if r.End > at {
			// Insertion inside the run inherits its style
			r.End += n
		}
	}
	st.runs = normalizeRuns(st.runs)

	for i := range st.attachments {
		if st.attachments[i].Index >= at {
			st.attachments[i].Index += n
		}
	}
	return nil
}

// DeleteRange removes the runes in [start, end). Runs are clipped or
// dropped and attachments inside the range are removed.
func (st *StyledText) DeleteRange(start, end int) error {
	if start < 0 || end > len(st.text) || start > end {
		return fmt.Errorf("delete range [%d,%d) out of bounds for length %d", start, end, len(st.text))
	}
	if start == end {
		return nil
	}
	n := end - start

	text := make([]rune, 0, len(st.text)-n)
	text = append(text, st.text[:start]...)
	text = append(text, st.text[end:]...)
	st.text = text

	var runs []StyleRun
	for _, r := range st.runs {
		switch {
		case r.End <= start:
			runs = append(runs, r)
		case r.Start >= end:
			runs = append(runs, StyleRun{Start: r.Start - n, End: r.End - n, Style: r.Style})
		default:
			left := r.Start
			if left > start {
				left = start
			}
			right := r.End - n
			if r.End <= end {
				right = start
			}
			if right > left {
				runs = append(runs, StyleRun{Start: left, End: right, Style: r.Style})
			}
		}
	}
	st.runs = normalizeRuns(runs)

	var atts []Attachment
	for _, a := range st.attachments {
		if a.Index >= start && a.Index < end {
			continue
		}
		if a.Index >= end {
			a.Index -= n
		}
		atts = append(atts, a)
	}
	st.attachments = atts
	return nil
}

// InsertImage embeds an image attachment at the given rune index. The
// attachment occupies one placeholder rune in the visible text.
func (st *StyledText) InsertImage(at int, filename, contentType string, data []byte) error {
	if at < 0 || at > len(st.text) {
		return fmt.Errorf("attachment index %d out of bounds for length %d", at, len(st.text))
	}
	if len(data) == 0 {
		return fmt.Errorf("attachment data is empty")
	}
	if err := st.InsertText(at, string(AttachmentRune)); err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	st.attachments = append(st.attachments, Attachment{
		Index:       at,
		Filename:    filename,
		ContentType: contentType,
		Data:        buf,
	})
	sort.SliceStable(st.attachments, func(i, j int) bool {
		return st.attachments[i].Index < st.attachments[j].Index
	})
	return nil
}

// normalizeRuns sorts runs, drops empty or zero-style ones and merges
// adjacent runs with identical styles.
func normalizeRuns(runs []StyleRun) []StyleRun {
	var out []StyleRun
	for _, r := range runs {
		if r.End <= r.Start || r.Style.IsZero() {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	merged := out[:0]
	for _, r := range out {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if last.End == r.Start && last.Style == r.Style {
				last.End = r.End
				continue
			}
		}
		merged = append(merged, r)
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// Equal reports whether two styled texts have identical visible text,
// runs and attachments (attachment bytes included).
func (st *StyledText) Equal(other *StyledText) bool {
	if st.String() != other.String() {
		return false
	}
	if len(st.runs) != len(other.runs) || len(st.attachments) != len(other.attachments) {
		return false
	}
	for i, r := range st.runs {
		if r != other.runs[i] {
			return false
		}
	}
	for i, a := range st.attachments {
		b := other.attachments[i]
		if a.Index != b.Index || a.Filename != b.Filename || a.ContentType != b.ContentType {
			return false
		}
		if string(a.Data) != string(b.Data) {
			return false
		}
	}
	return true
}
