package models

// Request models
type SignUpRequest struct {
	Username    string `json:"username" binding:"required"`
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Role        string `json:"role" binding:"omitempty,oneof=admin user"`
	Password    string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Role        string `json:"role" binding:"required,oneof=admin user"`
}

type AuthorRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type GenreRequest struct {
	Type string `json:"type" binding:"required"`
}

type CreateBookRequest struct {
	Title         string  `form:"title" json:"title" binding:"required"`
	ISBN          string  `form:"isbn" json:"isbn" binding:"required"`
	Publisher     string  `form:"publisher" json:"publisher"`
	PublishedYear int     `form:"publishedYear" json:"publishedYear"`
	Status        string  `form:"status" json:"status" binding:"omitempty,oneof=available unavailable"`
	Quantity      int     `form:"quantity" json:"quantity" binding:"min=0"`
	Rate          float64 `form:"rate" json:"rate"`
	Description   string  `form:"description" json:"description"`
	AuthorID      int64   `form:"authorId" json:"authorId" binding:"required"`
	GenreIDs      []int64 `form:"genreIds" json:"genreIds"`
}

type CommentRequest struct {
	BookID      int64  `json:"bookId" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Rating      int    `json:"rating" binding:"min=0,max=5"`
	Description string `json:"description" binding:"required"`
}

// BorrowRequest covers both the borrow and return endpoints
type BorrowRequest struct {
	Username string `json:"username" binding:"required"`
	BookID   int64  `json:"bookId" binding:"required"`
}

type CreateTransactionRequest struct {
	Username string `json:"username" binding:"required"`
	BookID   int64  `json:"bookId" binding:"required"`
}

type CreateNotificationRequest struct {
	TransactionID int64 `json:"transactionId" binding:"required"`
}

type CreateFineRequest struct {
	TransactionID int64 `json:"transactionId" binding:"required"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// BookDetailResponse is the borrow/return view model: the book, its
// comments and whether the acting user currently holds a copy.
type BookDetailResponse struct {
	Status     string    `json:"status"`
	Book       *Book     `json:"book"`
	Comments   []Comment `json:"comments"`
	Username   string    `json:"username,omitempty"`
	IsBorrowed bool      `json:"isBorrowed"`
}

type BorrowResponse struct {
	Status      string       `json:"status"`
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction"`
	IsBorrowed  bool         `json:"isBorrowed"`
}

type DeleteResponse struct {
	Status  string `json:"status"`
	Deleted bool   `json:"deleted"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
