package validation

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
)

const (
	MinWorkers = 1
	MaxWorkers = 20

	MaxPageLimit = 100
)

var (
	CommentStatuses = []string{"pending", "approved", "spam", "trash"}
	PostTypes       = []string{"post", "page"}
	ContentFormats  = []string{"html", "markdown", "visual"}
	MenuItemTypes   = []string{"hyperlink", "post"}
	UploadTypes     = []string{"image", "document", "favicon"}
)

func ValidateWorkerCount(workers int) error {
	if workers < MinWorkers || workers > MaxWorkers {
		return fmt.Errorf("worker count must be between %d and %d, got %d", MinWorkers, MaxWorkers, workers)
	}
	return nil
}

func ValidateID(kind string, id int) error {
	if id <= 0 {
		return fmt.Errorf("%s ID must be a positive integer, got %d", kind, id)
	}
	return nil
}

// ValidatePage checks a page number and page size. Zero means "server default".
func ValidatePage(page, limit int) error {
	if page < 0 {
		return fmt.Errorf("page must not be negative, got %d", page)
	}
	if limit < 0 || limit > MaxPageLimit {
		return fmt.Errorf("limit must be between 0 and %d, got %d", MaxPageLimit, limit)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

func ValidateEmail(email string) error {
	if err := ValidateNonEmptyString("email", email); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address: %s", email)
	}
	return nil
}

func ValidateCommentStatus(status string) error {
	return oneOf("comment status", status, CommentStatuses)
}

func ValidatePostType(postType string) error {
	return oneOf("post type", postType, PostTypes)
}

func ValidateContentFormat(format string) error {
	return oneOf("content format", format, ContentFormats)
}

func ValidateMenuItemType(itemType string) error {
	return oneOf("menu item type", itemType, MenuItemTypes)
}

func ValidateUploadType(uploadType string) error {
	return oneOf("upload type", uploadType, UploadTypes)
}

// ValidateTheme checks theme against the ids in registry.
func ValidateTheme(theme string, registry []string) error {
	return oneOf("theme", theme, registry)
}

func oneOf(what, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s: %s (must be one of: %s)", what, value, strings.Join(allowed, ", "))
	}
	return nil
}
