package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/decode"
	"github.com/kalambet/chartdeck/internal/store"
)

func TestUpload_StoresDataset(t *testing.T) {
	s := store.New()
	u := New(s)

	res, err := u.Upload(context.Background(), dataset.Keywords, "kw.csv",
		strings.NewReader("Keyword,Volume\ngo,100\nrust,80\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, []string{"Keyword", "Volume"}, res.Columns)

	rows, ok := s.Dataset(dataset.Keywords)
	require.True(t, ok)
	assert.Len(t, rows, 2)
	assert.Equal(t, store.UploadStatus{FileName: "kw.csv", Status: store.StatusSuccess}, s.UploadStatus(dataset.Keywords))
}

func TestUpload_BadExtensionNeverDecodes(t *testing.T) {
	s := store.New()
	called := false
	u := NewWithDecoder(s, func(context.Context, string, io.Reader) (decode.Sheet, error) {
		called = true
		return decode.Sheet{}, nil
	})

	_, err := u.Upload(context.Background(), dataset.Keywords, "notes.txt", strings.NewReader("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, decode.ErrUnsupportedExtension)
	assert.Equal(t, MsgExtension, Message(err))
	assert.False(t, called, "decoder invoked for rejected extension")

	_, ok := s.Dataset(dataset.Keywords)
	assert.False(t, ok)
	assert.Equal(t, store.StatusEmpty, s.UploadStatus(dataset.Keywords).Status)
}

func TestUpload_InsufficientData(t *testing.T) {
	for name, body := range map[string]string{
		"empty":       "",
		"header only": "A,B\n",
	} {
		t.Run(name, func(t *testing.T) {
			s := store.New()
			_, err := New(s).Upload(context.Background(), dataset.OfficialFacebook, "f.csv", strings.NewReader(body))
			assert.ErrorIs(t, err, ErrInsufficientData)
			assert.Equal(t, MsgInsufficient, Message(err))

			_, ok := s.Dataset(dataset.OfficialFacebook)
			assert.False(t, ok)
			assert.Equal(t, store.StatusEmpty, s.UploadStatus(dataset.OfficialFacebook).Status)
			assert.Empty(t, s.UploadStatus(dataset.OfficialFacebook).FileName)
		})
	}
}

func TestUpload_DecodeFailureKeepsPreviousDataset(t *testing.T) {
	s := store.New()
	u := New(s)
	_, err := u.Upload(context.Background(), dataset.OfficialInstagram, "ig.csv", strings.NewReader("A\n1\n2\n"))
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), dataset.OfficialInstagram, "ig.xlsx", strings.NewReader("not a workbook"))
	assert.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, MsgDecode, Message(err))

	var de *decode.DecodeError
	assert.True(t, errors.As(err, &de))

	rows, ok := s.Dataset(dataset.OfficialInstagram)
	require.True(t, ok)
	assert.Len(t, rows, 2)
	status := s.UploadStatus(dataset.OfficialInstagram)
	assert.Equal(t, store.StatusSuccess, status.Status)
	assert.Equal(t, "ig.csv", status.FileName)
}

func TestUpload_UnknownSlot(t *testing.T) {
	s := store.New()
	_, err := New(s).Upload(context.Background(), dataset.Slot("tiktok"), "t.csv", strings.NewReader("A\n1\n"))
	assert.ErrorIs(t, err, dataset.ErrUnknownSlot)
	assert.Empty(t, s.Uploaded())
}

func TestMessage_Generic(t *testing.T) {
	assert.Equal(t, MsgDecode, Message(errors.New("boom")))
}
