package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"socialchat/internal/app/message"
	"socialchat/internal/pkg/errs"
)

func TestValidateFileType(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		wantCode int
	}{
		{"png", "cat.png", "image/png", 0},
		{"jpeg alias", "cat.JPEG", "image/jpeg", 0},
		{"extension mismatch", "cat.png", "image/jpeg", errs.ErrFileTypeInvalid},
		{"not an image", "notes.pdf", "application/pdf", errs.ErrFileTypeInvalid},
		{"no extension", "cat", "image/png", errs.ErrFileTypeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileType(tt.fileName, tt.mimeType)
			if tt.wantCode == 0 {
				require.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			require.Equal(t, tt.wantCode, err.Code)
		})
	}
}

func TestValidateFileSize(t *testing.T) {
	req := require.New(t)

	req.Nil(ValidateFileSize(1024))
	req.Equal(errs.ErrInvalidParams, ValidateFileSize(0).Code)
	req.Equal(errs.ErrFileSizeTooLarge, ValidateFileSize(MaxAttachmentSize+1).Code)
}

func TestAttachmentKey_InChatNamespace(t *testing.T) {
	req := require.New(t)

	key := AttachmentKey("u1", "photo.PNG")

	req.True(strings.HasPrefix(key, message.AttachmentPrefix+"u1/"))
	req.True(strings.HasSuffix(key, ".png"))
	req.NoError(message.Body{Image: key}.Validate())
}

func TestAvatarKey(t *testing.T) {
	req := require.New(t)

	key := AvatarKey("u1", "image/webp")

	req.True(strings.HasPrefix(key, AvatarPrefix+"u1/"))
	req.True(strings.HasSuffix(key, ".webp"))
}
