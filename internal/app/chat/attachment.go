package chat

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"socialchat/internal/app/message"
	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/randx"
)

const (
	// MaxAttachmentSizeMB is the largest image accepted, in megabytes.
	MaxAttachmentSizeMB = 5

	// MaxAttachmentSize is MaxAttachmentSizeMB in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// PresignedURLDuration is how long an upload or download URL stays valid.
	PresignedURLDuration = 5 * time.Minute

	// AvatarPrefix is the object key namespace for profile pictures.
	AvatarPrefix = "avatars/"
)

// AllowedMIMETypes lists the image types accepted for chat images and avatars.
var AllowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ExtToMIME maps accepted file extensions to their MIME type.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateFileSize checks 0 < size <= MaxAttachmentSize.
func ValidateFileSize(size int64) *errs.CustomError {
	if size <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if size > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}
	return nil
}

// ValidateFileType checks that the MIME type is an accepted image type and
// agrees with the file name extension.
func ValidateFileType(fileName, mimeType string) *errs.CustomError {
	mimeType = strings.ToLower(mimeType)
	if _, ok := AllowedMIMETypes[mimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if expected, ok := ExtToMIME[ext]; !ok || expected != mimeType {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	return nil
}

// AttachmentKey returns a fresh object key for a chat image uploaded by userID.
func AttachmentKey(userID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s%s/%s", message.AttachmentPrefix, userID, randx.ObjectName(ext))
}

// AvatarKey returns a fresh object key for userID's avatar with the given MIME type.
func AvatarKey(userID, mimeType string) string {
	return fmt.Sprintf("%s%s/%s", AvatarPrefix, userID, randx.ObjectName(AllowedMIMETypes[mimeType]))
}
