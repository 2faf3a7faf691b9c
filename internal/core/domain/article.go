package domain

// ArticleCategory is a category attached to an article.
type ArticleCategory struct {
	ID   int64  `json:"article_category_id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}

// Article is an article as returned by the articles API.
type Article struct {
	ID             int64             `json:"article_id" yaml:"id" table:"id"`
	Slug           string            `json:"slug" yaml:"slug"`
	Title          string            `json:"title" yaml:"title"`
	Thumbnail      string            `json:"thumbnail" yaml:"thumbnail,omitempty" table:",wide"`
	Excerpt        string            `json:"excerpt" yaml:"excerpt,omitempty" table:",wide"`
	Content        string            `json:"content" yaml:"content,omitempty" table:"-"`
	IsExternalLink bool              `json:"is_external_link" yaml:"is_external_link" table:"external"`
	ExternalURL    string            `json:"external_url" yaml:"external_url,omitempty" table:",wide"`
	CreatedAt      string            `json:"created_at" yaml:"created_at" table:",wide"`
	UpdatedAt      string            `json:"updated_at" yaml:"updated_at"`
	Categories     []ArticleCategory `json:"categories" yaml:"categories,omitempty"`
}
