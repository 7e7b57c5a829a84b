package api

import (
	"io"
	"os"
	"path/filepath"

	"pipocanota/auth"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ProfileHandler manages the current user's picture
type ProfileHandler struct {
	sessions *auth.Service
	imageDir string
	maxWidth uint
}

// NewProfileHandler creates a profile handler storing uploads in imageDir
func NewProfileHandler(sessions *auth.Service, imageDir string, maxWidth uint) *ProfileHandler {
	return &ProfileHandler{
		sessions: sessions,
		imageDir: imageDir,
		maxWidth: maxWidth,
	}
}

// UpdateImage points the profile picture at an existing local file, or
// clears it when uri is empty
func (h *ProfileHandler) UpdateImage(c *fiber.Ctx) error {
	var req struct {
		URI string `json:"uri"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("error_bad_request", "invalid request", err)
	}

	user, err := h.sessions.UpdateProfileImage(c.UserContext(), req.URI)
	if err != nil {
		return storageError(err)
	}
	if user == nil {
		return utils.UnauthorizedError("error_unauthorized", "not logged in", nil)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user.Public(),
	})
}

// UploadImage accepts a multipart "image" field, shrinks it and makes it the
// profile picture
func (h *ProfileHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return utils.BadRequestError("error_bad_request", "image field missing", err)
	}
	if !utils.IsImage(file.Header.Get(fiber.HeaderContentType)) {
		return utils.BadRequestError("error_invalid_image", "unsupported content type", nil)
	}

	f, err := file.Open()
	if err != nil {
		return utils.InternalServerError("failed to read upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return utils.InternalServerError("failed to read upload", err)
	}

	optimized, ext, err := utils.OptimizeImage(data, h.maxWidth)
	if err != nil {
		return utils.BadRequestError("error_invalid_image", "could not decode image", err)
	}

	if err := os.MkdirAll(h.imageDir, 0700); err != nil {
		return utils.InternalServerError("failed to create image directory", err)
	}
	path, err := filepath.Abs(filepath.Join(h.imageDir, uuid.New().String()+ext))
	if err != nil {
		return utils.InternalServerError("failed to resolve image path", err)
	}
	if err := os.WriteFile(path, optimized, 0600); err != nil {
		return utils.InternalServerError("failed to store image", err)
	}

	user, err := h.sessions.UpdateProfileImage(c.UserContext(), "file://"+filepath.ToSlash(path))
	if err != nil {
		os.Remove(path)
		return storageError(err)
	}
	if user == nil {
		os.Remove(path)
		return utils.UnauthorizedError("error_unauthorized", "not logged in", nil)
	}

	utils.Log.WithField("user", user.ID).Info("Profile image updated (%d bytes)", len(optimized))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user.Public(),
	})
}
