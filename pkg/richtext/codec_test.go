package richtext

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"inkwell/pkg/errors"
)

func TestRoundTripBoldItalic(t *testing.T) {
	st := New("The quick brown fox")
	require.NoError(t, st.SetBold(4, 9, true))
	require.NoError(t, st.SetItalic(10, 15, true))

	blob, err := Encode(st)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(blob, []byte("INKRTS1\n")), "styling-only format expected without attachments")

	decoded, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, st.String(), decoded.String())
	require.Equal(t, st.Runs(), decoded.Runs())
	require.True(t, st.Equal(decoded))
}

func TestRoundTripLink(t *testing.T) {
	st := New("see the docs")
	require.NoError(t, st.SetLink(8, 12, "https://example.com/docs"))

	blob, err := Encode(st)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)
	require.True(t, st.Equal(decoded))
	require.Equal(t, "https://example.com/docs", decoded.StyleAt(8).Link)
}

func TestRoundTripAttachment(t *testing.T) {
	st := New("before  after")
	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0xff}
	require.NoError(t, st.InsertImage(7, "shot.png", "image/png", data))
	require.NoError(t, st.SetBold(0, 6, true))

	blob, err := Encode(st)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(blob, []byte("INKRTA1\n")), "attachments-capable format expected")

	decoded, err := Decode(blob)
	require.NoError(t, err)
	require.True(t, st.Equal(decoded))

	atts := decoded.Attachments()
	require.Len(t, atts, 1)
	require.Equal(t, 7, atts[0].Index)
	require.Equal(t, data, atts[0].Data)
	require.Equal(t, "image/png", atts[0].ContentType)
}

func TestRoundTripUnicodeText(t *testing.T) {
	st := New("héllo wörld — 日本語")
	require.NoError(t, st.SetBold(6, 11, true))

	blob, err := Encode(st)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, "héllo wörld — 日本語", decoded.String())
	require.Equal(t, st.Runs(), decoded.Runs())
}

func TestRoundTripPlain(t *testing.T) {
	st := New("nothing fancy")

	blob, err := Encode(st)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, "nothing fancy", decoded.String())
	require.False(t, decoded.HasRichContent())
}

func TestDecodeUnrecognizedFormat(t *testing.T) {
	_, err := Decode([]byte("garbage data"))
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	require.Equal(t, "UNRECOGNIZED_FORMAT", appErr.Code)

	_, err = Decode(nil)
	require.Error(t, err)
}

func TestDecodeMalformedPayload(t *testing.T) {
	blob := append([]byte("INKRTS1\n"), []byte("{not json")...)
	_, err := Decode(blob)
	require.Error(t, err)
}

func TestDecodeRejectsOutOfRangeRuns(t *testing.T) {
	blob := append([]byte("INKRTS1\n"), []byte(`{"text":"ab","runs":[{"start":0,"end":5,"bold":true}]}`)...)
	_, err := Decode(blob)
	require.Error(t, err)
}

func TestStylingOnlyBlobRejectsAttachments(t *testing.T) {
	blob := append([]byte("INKRTS1\n"), []byte(`{"text":"￼","attachments":[{"index":0,"data":"AQ=="}]}`)...)
	_, err := Decode(blob)
	require.Error(t, err)
}

func TestDecodeNeverPartiallyApplies(t *testing.T) {
	// A valid envelope with an invalid attachment position must fail
	// as a whole, not return half-applied content
	blob := append([]byte("INKRTA1\n"), []byte(`{"text":"abc","runs":[{"start":0,"end":1,"bold":true}],"attachments":[{"index":9,"data":"AQ=="}]}`)...)
	st, err := Decode(blob)
	require.Error(t, err)
	require.Nil(t, st)
}
