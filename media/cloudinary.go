package media

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

const (
	KindCourseThumbnail = "course_thumbnail"
	KindLessonVideo     = "lesson_video"
	KindProductImage    = "product_image"

	certificateFolder = "learnhub_certificates"
)

var uploadFolders = map[string]string{
	KindCourseThumbnail: "learnhub_course_thumbnails",
	KindLessonVideo:     "learnhub_lesson_videos",
	KindProductImage:    "learnhub_product_images",
}

// FolderFor maps an upload kind to its Cloudinary folder.
func FolderFor(kind string) (string, bool) {
	folder, ok := uploadFolders[kind]
	return folder, ok
}

type UploadSignature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	secret string
}

func NewCloudinary(cloudinaryURL string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "initialize cloudinary")
	}
	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse cloudinary url")
	}
	secret, _ := parsedURL.User.Password()
	return &Cloudinary{cld: cld, secret: secret}, nil
}

// SignUpload signs the parameters a browser needs for a direct upload into
// folder.
func (c *Cloudinary) SignUpload(folder string) (*UploadSignature, error) {
	paramsToSign, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return nil, errors.Wrap(err, "prepare signature params")
	}

	timestamp := time.Now().Unix()
	paramsToSign.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(paramsToSign, c.secret)
	if err != nil {
		return nil, errors.Wrap(err, "sign upload params")
	}

	return &UploadSignature{
		Signature: signature,
		Timestamp: timestamp,
		APIKey:    c.cld.Config.Cloud.APIKey,
		CloudName: c.cld.Config.Cloud.CloudName,
		Folder:    folder,
	}, nil
}

// UploadCertificate stores a rendered certificate PDF and returns its URL.
func (c *Cloudinary) UploadCertificate(ctx context.Context, pdf []byte, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	uploadResult, err := c.cld.Upload.Upload(ctx, bytes.NewReader(pdf), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       certificateFolder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", errors.Wrap(err, "upload certificate")
	}
	if uploadResult.Error.Message != "" {
		return "", errors.New(uploadResult.Error.Message)
	}
	return uploadResult.SecureURL, nil
}
