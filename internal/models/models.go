package models

import (
	"time"
)

// User represents a library member or librarian. The username is the
// primary key; Role distinguishes "admin" from "user".
type User struct {
	Username         string    `db:"username" json:"username"`
	FirstName        string    `db:"first_name" json:"firstName"`
	LastName         string    `db:"last_name" json:"lastName"`
	Email            string    `db:"email" json:"email"`
	PhoneNumber      string    `db:"phone_number" json:"phoneNumber"`
	Address          string    `db:"address" json:"address"`
	Role             string    `db:"role" json:"role"`
	Password         string    `db:"password" json:"-"` // Password hash, not returned in JSON
	RegistrationDate time.Time `db:"registration_date" json:"registrationDate"`
	LastUpdatedAt    time.Time `db:"last_updated_at" json:"lastUpdatedAt"`
}

// Author represents a book author
type Author struct {
	ID        int64  `db:"author_id" json:"id"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
}

// Genre represents a book genre
type Genre struct {
	ID   int64  `db:"genre_id" json:"id"`
	Type string `db:"type" json:"type"`
}

// Image holds a book cover and its derived thumbnail
type Image struct {
	ID            int64  `db:"image_id" json:"id"`
	ImageData     []byte `db:"image_data" json:"-"`
	ImageType     string `db:"image_type" json:"imageType"`
	ThumbnailData []byte `db:"thumbnail_data" json:"-"`
}

// Book status labels. A book is marked unavailable when its quantity
// reaches zero; the label is not restored on return.
const (
	BookStatusAvailable   = "available"
	BookStatusUnavailable = "unavailable"
)

// Book represents an inventory unit. Quantity is the count of lendable
// copies and is authoritative for availability checks.
type Book struct {
	ID            int64    `db:"book_id" json:"id"`
	Title         string   `db:"title" json:"title"`
	ISBN          string   `db:"isbn" json:"isbn"`
	Publisher     string   `db:"publisher" json:"publisher"`
	PublishedYear int      `db:"published_year" json:"publishedYear"`
	Status        string   `db:"status" json:"status"`
	Quantity      int      `db:"quantity" json:"quantity"`
	Rate          float64  `db:"rate" json:"rate"`
	Description   string   `db:"description" json:"description"`
	AuthorID      int64    `db:"author_id" json:"authorId"`
	ImageID       *int64   `db:"image_id" json:"imageId,omitempty"`
	AuthorFirst   string   `db:"first_name" json:"authorFirstName,omitempty"`
	AuthorLast    string   `db:"last_name" json:"authorLastName,omitempty"`
	Genres        []string `db:"-" json:"genres,omitempty"`
}

// Comment represents a member comment on a book
type Comment struct {
	ID          int64     `db:"comment_id" json:"id"`
	BookID      int64     `db:"book_id" json:"bookId"`
	Username    string    `db:"username" json:"username"`
	Rating      int       `db:"rating" json:"rating"`
	CommentDate time.Time `db:"comment_date" json:"commentDate"`
	Description string    `db:"comment_description" json:"description"`
}

// Transaction represents a borrowing transaction. ReturnDate is nil while
// the loan is open; at most one open transaction exists per (username,
// book) pair.
type Transaction struct {
	ID         int64      `db:"transaction_id" json:"id"`
	Username   string     `db:"username" json:"username"`
	BookID     int64      `db:"book_id" json:"bookId"`
	BookTitle  string     `db:"title" json:"bookTitle,omitempty"`
	IssueDate  time.Time  `db:"issue_date" json:"issueDate"`
	DueDate    time.Time  `db:"due_date" json:"dueDate"`
	ReturnDate *time.Time `db:"return_date" json:"returnDate"`
}

// Notification represents a return reminder, created once per transaction
// at borrow time and scheduled 14 days after the issue date.
type Notification struct {
	ID           int64     `db:"notification_id" json:"id"`
	Username     string    `db:"username" json:"username"`
	BookID       int64     `db:"book_id" json:"bookId"`
	FineID       *int64    `db:"fine_id" json:"fineId,omitempty"`
	ReminderDate time.Time `db:"reminder_date" json:"reminderDate"`
	Message      string    `db:"message" json:"message"`
}

// Fine status labels
const (
	FineStatusUnpaid = "unpaid"
	FineStatusPaid   = "paid"
)

// FineAmount is the fixed penalty charged per fine.
const FineAmount = 40

// Fine represents a penalty referencing one borrowing transaction. The
// username is denormalized from the transaction.
type Fine struct {
	ID            int64      `db:"fine_id" json:"id"`
	Username      string     `db:"username" json:"username"`
	TransactionID int64      `db:"transaction_id" json:"transactionId"`
	BorrowedBook  string     `db:"borrowed_book" json:"borrowedBook,omitempty"`
	Amount        int        `db:"fine_amount" json:"amount"`
	Status        string     `db:"fine_status" json:"status"`
	PaidDate      *time.Time `db:"paid_date" json:"paidDate"`
}
