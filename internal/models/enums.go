package models

import "errors"

var ErrUnknownValue = errors.New("unknown enum value")

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// ParseApplicationStatus validates a status sent by a client.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch st := ApplicationStatus(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}

	return "", ErrUnknownValue
}

// ParseStatusFilter is ParseApplicationStatus for list filters: "" and "all" mean no
// restriction and yield an empty status.
func ParseStatusFilter(s string) (ApplicationStatus, error) {
	if s == "" || s == "all" {
		return "", nil
	}

	return ParseApplicationStatus(s)
}

// CanTransition reports whether an application in status s may be moved to next.
// pending is the only non-terminal state; repeating the current status is allowed.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	return s == next || s == StatusPending
}

type PostCategory string

const (
	CategoryNotice PostCategory = "공지사항"
	CategoryQnA    PostCategory = "Q&A"
	CategoryReview PostCategory = "수강후기"

	categoryAll = "전체"
)

func ParsePostCategory(s string) (PostCategory, error) {
	switch c := PostCategory(s); c {
	case CategoryNotice, CategoryQnA, CategoryReview:
		return c, nil
	}

	return "", ErrUnknownValue
}

// ParseCategoryFilter accepts "" and "전체" as "every category".
func ParseCategoryFilter(s string) (PostCategory, error) {
	if s == "" || s == categoryAll {
		return "", nil
	}

	return ParsePostCategory(s)
}

// AdminOnly reports whether only administrators may write posts in c.
func (c PostCategory) AdminOnly() bool {
	return c == CategoryNotice
}
