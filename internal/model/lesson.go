package model

import (
	"time"
)

// LessonRequest is the body of POST /lessons/daily.
type LessonRequest struct {
	Topic string `json:"topic"`
}

// Lesson is a generated daily lesson.
type Lesson struct {
	Content string    `json:"content"`
	Topic   string    `json:"topic"`
	Date    time.Time `json:"date"`
}
