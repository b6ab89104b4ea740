package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	PassHash  []byte    `json:"-"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

type Application struct {
	ID         int64             `json:"id"`
	UserID     *int64            `json:"userId"`
	CourseType string            `json:"courseType"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Email      string            `json:"email"`
	Motivation string            `json:"motivation"`
	Status     ApplicationStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type Course struct {
	ID           int64     `json:"id"`
	Category     string    `json:"category"`
	Title        string    `json:"title"`
	Level        string    `json:"level"`
	Duration     string    `json:"duration"`
	Price        string    `json:"price"`
	ImageURL     string    `json:"imageUrl"`
	Features     []string  `json:"features"`
	IsActive     bool      `json:"isActive"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

type GalleryItem struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	ImageURL     string    `json:"imageUrl"`
	LinkURL      *string   `json:"linkUrl"`
	LinkLabel    *string   `json:"linkLabel"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Post rows keep the snake_case wire names the community pages already consume.
type Post struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	Category     PostCategory `json:"category"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	AuthorName   string       `json:"author_name"`
	Views        int64        `json:"views"`
	IsPinned     bool         `json:"is_pinned"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	CommentCount int64        `json:"comment_count"`
	LikeCount    int64        `json:"like_count"`
}

type PostDetail struct {
	Post
	UserLiked bool `json:"user_liked"`
}

type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"post_id"`
	UserID     int64     `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type Stats struct {
	TotalUsers           int64 `json:"totalUsers"`
	TotalApplications    int64 `json:"totalApplications"`
	PendingApplications  int64 `json:"pendingApplications"`
	ApprovedApplications int64 `json:"approvedApplications"`
	NewUsersThisWeek     int64 `json:"newUsersThisWeek"`
	NewAppsThisWeek      int64 `json:"newAppsThisWeek"`
}

// Message is the payload published to the mail queue.
type Message struct {
	Email   string `json:"to"`
	Name    string `json:"name"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
