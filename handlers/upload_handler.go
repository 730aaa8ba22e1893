package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UploadHandler hands out signed parameters so the admin frontend can upload
// service images straight to Cloudinary.
type UploadHandler struct {
	cld    *cloudinary.Cloudinary
	secret string
	folder string
	now    func() time.Time
	log    *zap.Logger
}

func NewUploadHandler(cloudinaryURL, folder string, log *zap.Logger) (*UploadHandler, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("parse cloudinary url: %w", err)
	}
	secret, _ := parsedURL.User.Password()

	return &UploadHandler{cld: cld, secret: secret, folder: folder, now: time.Now, log: log}, nil
}

func (h *UploadHandler) GenerateUploadSignature(c *fiber.Ctx) error {
	paramsToSign, err := api.StructToParams(uploader.UploadParams{
		Folder: h.folder,
	})
	if err != nil {
		h.log.Error("prepare upload params", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to prepare signature params"})
	}

	timestamp := h.now().Unix()
	paramsToSign.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(paramsToSign, h.secret)
	if err != nil {
		h.log.Error("sign upload params", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign upload params"})
	}

	return c.JSON(fiber.Map{
		"signature":  signature,
		"timestamp":  timestamp,
		"api_key":    h.cld.Config.Cloud.APIKey,
		"cloud_name": h.cld.Config.Cloud.CloudName,
		"folder":     h.folder,
	})
}
