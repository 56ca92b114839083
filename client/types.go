package client

import "time"

// Content formats a post body can be stored in.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatVisual   = "visual"
)

// Post types.
const (
	TypePost = "post"
	TypePage = "page"
)

// Comment moderation states.
const (
	CommentPending  = "pending"
	CommentApproved = "approved"
	CommentSpam     = "spam"
	CommentTrash    = "trash"
)

// Menu item kinds.
const (
	MenuItemHyperlink = "hyperlink"
	MenuItemPost      = "post"
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Paginated is a listing plus its pagination block.
type Paginated[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Post struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ContentFormat string    `json:"contentFormat,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	Slug          string    `json:"slug,omitempty"`
	PostType      string    `json:"postType,omitempty"`
	ParentID      *int      `json:"parentId,omitempty"`
	MenuOrder     int       `json:"menuOrder,omitempty"`
	PageTemplate  string    `json:"pageTemplate,omitempty"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PostInput is the body of a create call.
type PostInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	ContentFormat string `json:"contentFormat,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Slug          string `json:"slug,omitempty"`
	PostType      string `json:"postType,omitempty"`
	ParentID      *int   `json:"parentId,omitempty"`
	MenuOrder     int    `json:"menuOrder,omitempty"`
	PageTemplate  string `json:"pageTemplate,omitempty"`
	Published     bool   `json:"published"`
}

// PostUpdate is a partial update; nil fields are left untouched.
type PostUpdate struct {
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	ContentFormat *string `json:"contentFormat,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	Slug          *string `json:"slug,omitempty"`
	PostType      *string `json:"postType,omitempty"`
	ParentID      *int    `json:"parentId,omitempty"`
	MenuOrder     *int    `json:"menuOrder,omitempty"`
	PageTemplate  *string `json:"pageTemplate,omitempty"`
	Published     *bool   `json:"published,omitempty"`
}

type Revision struct {
	ID             int       `json:"id"`
	PostID         int       `json:"postId"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Summary        string    `json:"summary,omitempty"`
	RevisionNumber int       `json:"revisionNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Comment struct {
	ID            int        `json:"id"`
	PostID        int        `json:"postId"`
	ParentID      *int       `json:"parentId,omitempty"`
	AuthorName    string     `json:"authorName"`
	AuthorEmail   string     `json:"authorEmail,omitempty"`
	AuthorWebsite string     `json:"authorWebsite,omitempty"`
	PostTitle     string     `json:"post_title,omitempty"`
	Content       string     `json:"content"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Replies       []*Comment `json:"replies,omitempty"`
}

type CommentInput struct {
	PostID      int    `json:"postId"`
	ParentID    *int   `json:"parentId,omitempty"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail,omitempty"`
	Content     string `json:"content"`
}

type CommentStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Spam     int `json:"spam"`
	Trash    int `json:"trash"`
	Recent   int `json:"recent"`
}

type Menu struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Items       []MenuItem `json:"items,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type MenuInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

type MenuItem struct {
	ID         int    `json:"id"`
	MenuID     int    `json:"menuId"`
	ParentID   *int   `json:"parentId,omitempty"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	PostID     *int   `json:"postId,omitempty"`
	PostSlug   string `json:"postSlug,omitempty"`
	Target     string `json:"target,omitempty"`
	CSSClasses string `json:"cssClasses,omitempty"`
	SortOrder  int    `json:"sortOrder"`
}

type MenuItemInput struct {
	ParentID   *int   `json:"parentId,omitempty"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	PostID     *int   `json:"postId,omitempty"`
	Target     string `json:"target,omitempty"`
	CSSClasses string `json:"cssClasses,omitempty"`
	SortOrder  int    `json:"sortOrder"`
}

// MenuItemOrder is one entry of a reorder call.
type MenuItemOrder struct {
	ID        int  `json:"id"`
	ParentID  *int `json:"parentId"`
	SortOrder int  `json:"sortOrder"`
}

type Admin struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	Admin        Admin  `json:"admin"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// SchemaIssue is one difference between the live database and the
// expected schema.
type SchemaIssue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Index    string `json:"index,omitempty"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Fixable  bool   `json:"fixable"`
	FixQuery string `json:"fixQuery,omitempty"`
}

type SchemaValidation struct {
	Valid        bool          `json:"valid"`
	Issues       []SchemaIssue `json:"issues"`
	TablesCount  int           `json:"tablesCount"`
	IndexesCount int           `json:"indexesCount"`
}

type SchemaFixResult struct {
	Fixed   int      `json:"fixed"`
	Failed  []string `json:"failed"`
	Message string   `json:"message"`
}

type TableRef struct {
	Name string `json:"name"`
}

type IndexInfo struct {
	Name  string `json:"name"`
	Table string `json:"tbl_name"`
}

type TableStat struct {
	Name     string `json:"name"`
	RowCount int    `json:"rowCount"`
}

type DatabaseInfo struct {
	Tables       []TableRef  `json:"tables"`
	Indexes      []IndexInfo `json:"indexes"`
	TableStats   []TableStat `json:"tableStats"`
	TotalTables  int         `json:"totalTables"`
	TotalIndexes int         `json:"totalIndexes"`
}

// PresignedUpload is the first step of a direct-to-storage upload.
type PresignedUpload struct {
	PresignedURL   string `json:"presignedUrl"`
	TempKey        string `json:"tempKey"`
	FinalKey       string `json:"finalKey"`
	UniqueFilename string `json:"uniqueFilename"`
	ExpiresIn      int    `json:"expiresIn"`
	IsDirect       bool   `json:"isDirect"`
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
	Type     string `json:"type,omitempty"`
}

type PublicSiteSettings struct {
	SiteTitle   string `json:"site_title"`
	SiteTagline string `json:"site_tagline"`
	FaviconURL  string `json:"favicon_url"`
	ActiveTheme string `json:"active_theme,omitempty"`
}
