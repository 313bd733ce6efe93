package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// AvatarStore turns a submitted avatar into the value kept on the user.
type AvatarStore interface {
	Store(ctx context.Context, userID, avatar string) (string, error)
}

type PassthroughAvatars struct{}

func (PassthroughAvatars) Store(_ context.Context, _ string, avatar string) (string, error) {
	return avatar, nil
}

// CloudinaryAvatars uploads inline data-URL avatars and keeps the hosted
// URL instead. Anything else, including "", is stored as submitted.
type CloudinaryAvatars struct {
	cld    *cloudinary.Cloudinary
	folder string
	log    *zap.Logger
}

func NewCloudinaryAvatars(cloudName, apiKey, apiSecret, folder string, log *zap.Logger) (*CloudinaryAvatars, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryAvatars{cld: cld, folder: folder, log: log}, nil
}

func isInlineImage(avatar string) bool { return strings.HasPrefix(avatar, "data:image/") }

func (a *CloudinaryAvatars) Store(ctx context.Context, userID, avatar string) (string, error) {
	if !isInlineImage(avatar) {
		return avatar, nil
	}
	res, err := a.cld.Upload.Upload(ctx, avatar, uploader.UploadParams{
		Folder:       a.folder,
		PublicID:     userID,
		Overwrite:    api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("upload avatar: %s", res.Error.Message)
	}
	a.log.Debug("avatar uploaded", zap.String("user_id", userID), zap.String("url", res.SecureURL))
	return res.SecureURL, nil
}
