package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lmehdi/libraryms-server/internal/apperrors"
	"github.com/lmehdi/libraryms-server/internal/models"
)

// MemoryRepository is an in-memory Repository used by the test suite so
// it runs without a database. It mirrors the PostgresRepository
// semantics, including the atomic borrow/return composites.
type MemoryRepository struct {
	mu sync.Mutex

	users         map[string]models.User
	authors       map[int64]models.Author
	genres        map[int64]models.Genre
	images        map[int64]models.Image
	books         map[int64]models.Book
	bookGenres    map[int64][]int64
	comments      map[int64]models.Comment
	transactions  map[int64]models.Transaction
	notifications map[int64]models.Notification
	fines         map[int64]models.Fine

	nextID map[string]int64
}

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[string]models.User),
		authors:       make(map[int64]models.Author),
		genres:        make(map[int64]models.Genre),
		images:        make(map[int64]models.Image),
		books:         make(map[int64]models.Book),
		bookGenres:    make(map[int64][]int64),
		comments:      make(map[int64]models.Comment),
		transactions:  make(map[int64]models.Transaction),
		notifications: make(map[int64]models.Notification),
		fines:         make(map[int64]models.Fine),
		nextID:        make(map[string]int64),
	}
}

func (r *MemoryRepository) next(entity string) int64 {
	r.nextID[entity]++
	return r.nextID[entity]
}

// User operations
func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return fmt.Errorf("duplicate username %q", user.Username)
	}

	now := time.Now().UTC()
	user.RegistrationDate = now
	user.LastUpdatedAt = now
	if user.Role == "" {
		user.Role = "user"
	}

	r.users[user.Username] = *user
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *MemoryRepository) GetAllUsers(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, user *models.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.Username]
	if !ok {
		return false, nil
	}

	user.Password = existing.Password
	user.RegistrationDate = existing.RegistrationDate
	user.LastUpdatedAt = time.Now().UTC()
	r.users[user.Username] = *user
	return true, nil
}

func (r *MemoryRepository) DeleteUser(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[username]; !ok {
		return false, nil
	}
	delete(r.users, username)
	return true, nil
}

func (r *MemoryRepository) CheckUserExists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[username]
	return ok, nil
}

// Author operations
func (r *MemoryRepository) CreateAuthor(_ context.Context, author *models.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	author.ID = r.next("author")
	r.authors[author.ID] = *author
	return nil
}

func (r *MemoryRepository) GetAuthor(_ context.Context, id int64) (*models.Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	author, ok := r.authors[id]
	if !ok {
		return nil, nil
	}
	return &author, nil
}

func (r *MemoryRepository) GetAllAuthors(_ context.Context) ([]models.Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	authors := make([]models.Author, 0, len(r.authors))
	for _, author := range r.authors {
		authors = append(authors, author)
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i].ID < authors[j].ID })
	return authors, nil
}

func (r *MemoryRepository) UpdateAuthor(_ context.Context, author *models.Author) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.authors[author.ID]; !ok {
		return false, nil
	}
	r.authors[author.ID] = *author
	return true, nil
}

func (r *MemoryRepository) DeleteAuthor(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.authors[id]; !ok {
		return false, nil
	}
	delete(r.authors, id)
	return true, nil
}

// Genre operations
func (r *MemoryRepository) CreateGenre(_ context.Context, genre *models.Genre) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	genre.ID = r.next("genre")
	r.genres[genre.ID] = *genre
	return nil
}

func (r *MemoryRepository) GetGenre(_ context.Context, id int64) (*models.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	genre, ok := r.genres[id]
	if !ok {
		return nil, nil
	}
	return &genre, nil
}

func (r *MemoryRepository) GetAllGenres(_ context.Context) ([]models.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	genres := make([]models.Genre, 0, len(r.genres))
	for _, genre := range r.genres {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].ID < genres[j].ID })
	return genres, nil
}

func (r *MemoryRepository) UpdateGenre(_ context.Context, genre *models.Genre) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.genres[genre.ID]; !ok {
		return false, nil
	}
	r.genres[genre.ID] = *genre
	return true, nil
}

func (r *MemoryRepository) DeleteGenre(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.genres[id]; !ok {
		return false, nil
	}
	delete(r.genres, id)
	return true, nil
}

// Image operations
func (r *MemoryRepository) CreateImage(_ context.Context, image *models.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	image.ID = r.next("image")
	r.images[image.ID] = *image
	return nil
}

func (r *MemoryRepository) GetImage(_ context.Context, id int64) (*models.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	image, ok := r.images[id]
	if !ok {
		return nil, nil
	}
	return &image, nil
}

func (r *MemoryRepository) GetAllImages(_ context.Context) ([]models.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	images := make([]models.Image, 0, len(r.images))
	for _, image := range r.images {
		images = append(images, models.Image{ID: image.ID, ImageType: image.ImageType})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	return images, nil
}

func (r *MemoryRepository) DeleteImage(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[id]; !ok {
		return false, nil
	}
	delete(r.images, id)
	return true, nil
}

// Book operations
func (r *MemoryRepository) CreateBook(_ context.Context, book *models.Book, genreIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book.ID = r.next("book")
	if book.Status == "" {
		book.Status = models.BookStatusAvailable
	}
	r.fillAuthorLocked(book)
	r.books[book.ID] = *book
	r.bookGenres[book.ID] = append([]int64(nil), genreIDs...)
	return nil
}

func (r *MemoryRepository) GetBook(_ context.Context, id int64) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.getBookLocked(id), nil
}

func (r *MemoryRepository) GetBookByTitle(_ context.Context, title string) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, book := range r.books {
		if book.Title == title {
			return r.getBookLocked(id), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetBookByISBN(_ context.Context, isbn string) (*models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, book := range r.books {
		if book.ISBN == isbn {
			return r.getBookLocked(id), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetAllBooks(_ context.Context) ([]models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	books := make([]models.Book, 0, len(r.books))
	for id := range r.books {
		books = append(books, *r.getBookLocked(id))
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

func (r *MemoryRepository) UpdateBook(_ context.Context, book *models.Book, genreIDs []int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[book.ID]; !ok {
		return false, nil
	}
	r.fillAuthorLocked(book)
	r.books[book.ID] = *book
	if genreIDs != nil {
		r.bookGenres[book.ID] = append([]int64(nil), genreIDs...)
	}
	return true, nil
}

func (r *MemoryRepository) DeleteBook(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return false, nil
	}
	delete(r.books, id)
	delete(r.bookGenres, id)
	return true, nil
}

func (r *MemoryRepository) SearchBooks(_ context.Context, keyword string) ([]models.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(keyword)
	var books []models.Book
	for id := range r.books {
		book := r.getBookLocked(id)
		haystack := strings.ToLower(strings.Join(append([]string{
			book.Title, book.Publisher, book.AuthorFirst, book.AuthorLast,
			strconv.Itoa(book.PublishedYear),
		}, book.Genres...), "\n"))
		if strings.Contains(haystack, needle) {
			books = append(books, *book)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

func (r *MemoryRepository) getBookLocked(id int64) *models.Book {
	book, ok := r.books[id]
	if !ok {
		return nil
	}
	r.fillAuthorLocked(&book)
	book.Genres = nil
	for _, genreID := range r.bookGenres[id] {
		if genre, ok := r.genres[genreID]; ok {
			book.Genres = append(book.Genres, genre.Type)
		}
	}
	sort.Strings(book.Genres)
	return &book
}

func (r *MemoryRepository) fillAuthorLocked(book *models.Book) {
	if author, ok := r.authors[book.AuthorID]; ok {
		book.AuthorFirst = author.FirstName
		book.AuthorLast = author.LastName
	}
}

// Comment operations
func (r *MemoryRepository) CreateComment(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	comment.ID = r.next("comment")
	if comment.CommentDate.IsZero() {
		comment.CommentDate = time.Now().UTC()
	}
	r.comments[comment.ID] = *comment
	return nil
}

func (r *MemoryRepository) GetCommentsByBook(_ context.Context, bookID int64) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var comments []models.Comment
	for _, comment := range r.comments {
		if comment.BookID == bookID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (r *MemoryRepository) DeleteComment(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[id]; !ok {
		return false, nil
	}
	delete(r.comments, id)
	return true, nil
}

// Transaction operations
func (r *MemoryRepository) GetAllTransactions(_ context.Context) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transactions := make([]models.Transaction, 0, len(r.transactions))
	for _, transaction := range r.transactions {
		r.fillTitleLocked(&transaction)
		transactions = append(transactions, transaction)
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].ID < transactions[j].ID })
	return transactions, nil
}

func (r *MemoryRepository) GetTransaction(_ context.Context, id int64) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transaction, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	r.fillTitleLocked(&transaction)
	return &transaction, nil
}

func (r *MemoryRepository) GetOpenTransaction(_ context.Context, username string, bookID int64) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transaction := r.openTransactionLocked(username, bookID)
	if transaction == nil {
		return nil, nil
	}
	r.fillTitleLocked(transaction)
	return transaction, nil
}

func (r *MemoryRepository) GetOpenTransactionsByUser(_ context.Context, username string) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var transactions []models.Transaction
	for _, transaction := range r.transactions {
		if transaction.Username == username && transaction.ReturnDate == nil {
			r.fillTitleLocked(&transaction)
			transactions = append(transactions, transaction)
		}
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].ID < transactions[j].ID })
	return transactions, nil
}

func (r *MemoryRepository) CreateTransaction(_ context.Context, username string, bookID int64) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.checkBorrowLocked(username, bookID); err != nil {
		return nil, err
	}

	transaction := r.insertTransactionLocked(username, bookID)
	return transaction, nil
}

func (r *MemoryRepository) BorrowBook(_ context.Context, username string, bookID int64) (*models.Transaction, *models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	title, err := r.checkBorrowLocked(username, bookID)
	if err != nil {
		return nil, nil, err
	}

	book := r.books[bookID]
	book.Quantity--
	if book.Quantity == 0 {
		book.Status = models.BookStatusUnavailable
	}
	r.books[bookID] = book

	transaction := r.insertTransactionLocked(username, bookID)
	transaction.BookTitle = title

	notification := models.Notification{
		ID:           r.next("notification"),
		Username:     username,
		BookID:       bookID,
		ReminderDate: transaction.IssueDate.AddDate(0, 0, reminderOffsetDays),
		Message:      reminderMessage(title, transaction.DueDate),
	}
	r.notifications[notification.ID] = notification

	return transaction, &notification, nil
}

func (r *MemoryRepository) ReturnBook(_ context.Context, username string, bookID int64) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transaction := r.openTransactionLocked(username, bookID)
	if transaction == nil {
		return nil, apperrors.Conflict("transaction", fmt.Sprintf("%s/%d", username, bookID),
			"no active borrowing record found for this user and book")
	}

	now := time.Now().UTC()
	transaction.ReturnDate = &now
	r.transactions[transaction.ID] = *transaction

	if book, ok := r.books[bookID]; ok {
		book.Quantity++
		r.books[bookID] = book
	}

	r.fillTitleLocked(transaction)
	return transaction, nil
}

func (r *MemoryRepository) ForceReturnTransaction(_ context.Context, id int64) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strconv.FormatInt(id, 10)

	transaction, ok := r.transactions[id]
	if !ok {
		return nil, apperrors.NotFound("transaction", key)
	}
	if transaction.ReturnDate != nil {
		return nil, apperrors.Conflict("transaction", key, "already completed (book returned)")
	}

	now := time.Now().UTC()
	transaction.ReturnDate = &now
	r.transactions[id] = transaction

	if book, ok := r.books[transaction.BookID]; ok {
		book.Quantity++
		r.books[transaction.BookID] = book
	}

	r.fillTitleLocked(&transaction)
	return &transaction, nil
}

func (r *MemoryRepository) DeleteTransaction(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transactions[id]; !ok {
		return false, nil
	}
	delete(r.transactions, id)
	return true, nil
}

func (r *MemoryRepository) checkBorrowLocked(username string, bookID int64) (string, error) {
	bookKey := strconv.FormatInt(bookID, 10)

	book, ok := r.books[bookID]
	if !ok {
		return "", apperrors.NotFound("book", bookKey)
	}
	if book.Quantity <= 0 {
		return "", apperrors.Conflict("book", bookKey, "no available copies to borrow")
	}
	if _, ok := r.users[username]; !ok {
		return "", apperrors.NotFound("user", username)
	}
	if r.openTransactionLocked(username, bookID) != nil {
		return "", apperrors.Conflict("transaction", fmt.Sprintf("%s/%d", username, bookID),
			"book is already borrowed by this user")
	}

	return book.Title, nil
}

func (r *MemoryRepository) openTransactionLocked(username string, bookID int64) *models.Transaction {
	for _, transaction := range r.transactions {
		if transaction.Username == username && transaction.BookID == bookID && transaction.ReturnDate == nil {
			t := transaction
			return &t
		}
	}
	return nil
}

func (r *MemoryRepository) insertTransactionLocked(username string, bookID int64) *models.Transaction {
	issueDate := time.Now().UTC()
	transaction := models.Transaction{
		ID:        r.next("transaction"),
		Username:  username,
		BookID:    bookID,
		IssueDate: issueDate,
		DueDate:   issueDate.AddDate(0, 1, 0),
	}
	r.transactions[transaction.ID] = transaction
	return &transaction
}

func (r *MemoryRepository) fillTitleLocked(transaction *models.Transaction) {
	if book, ok := r.books[transaction.BookID]; ok {
		transaction.BookTitle = book.Title
	}
}

// Notification operations
func (r *MemoryRepository) CreateReminder(_ context.Context, transactionID int64) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transaction, ok := r.transactions[transactionID]
	if !ok {
		return nil, apperrors.NotFound("transaction", strconv.FormatInt(transactionID, 10))
	}

	var title string
	if book, ok := r.books[transaction.BookID]; ok {
		title = book.Title
	}

	notification := models.Notification{
		ID:           r.next("notification"),
		Username:     transaction.Username,
		BookID:       transaction.BookID,
		ReminderDate: transaction.IssueDate.AddDate(0, 0, reminderOffsetDays),
		Message:      reminderMessage(title, transaction.DueDate),
	}
	r.notifications[notification.ID] = notification
	return &notification, nil
}

func (r *MemoryRepository) GetAllNotifications(_ context.Context) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	notifications := make([]models.Notification, 0, len(r.notifications))
	for _, notification := range r.notifications {
		notifications = append(notifications, notification)
	}
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].ID < notifications[j].ID })
	return notifications, nil
}

func (r *MemoryRepository) GetNotification(_ context.Context, id int64) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	notification, ok := r.notifications[id]
	if !ok {
		return nil, nil
	}
	return &notification, nil
}

func (r *MemoryRepository) GetNotificationsByUser(_ context.Context, username string) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var notifications []models.Notification
	for _, notification := range r.notifications {
		if notification.Username == username {
			notifications = append(notifications, notification)
		}
	}
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].ID < notifications[j].ID })
	return notifications, nil
}

func (r *MemoryRepository) DeleteNotification(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notifications[id]; !ok {
		return false, nil
	}
	delete(r.notifications, id)
	return true, nil
}

// Fine operations
func (r *MemoryRepository) CreateFine(_ context.Context, transactionID int64) (*models.Fine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transaction, ok := r.transactions[transactionID]
	if !ok {
		return nil, apperrors.NotFound("transaction", strconv.FormatInt(transactionID, 10))
	}

	fine := models.Fine{
		ID:            r.next("fine"),
		Username:      transaction.Username,
		TransactionID: transactionID,
		Amount:        models.FineAmount,
		Status:        models.FineStatusUnpaid,
	}
	r.fines[fine.ID] = fine
	return &fine, nil
}

func (r *MemoryRepository) GetAllFines(_ context.Context) ([]models.Fine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fines := make([]models.Fine, 0, len(r.fines))
	for _, fine := range r.fines {
		r.fillFineTitleLocked(&fine)
		fines = append(fines, fine)
	}
	sort.Slice(fines, func(i, j int) bool { return fines[i].ID < fines[j].ID })
	return fines, nil
}

func (r *MemoryRepository) GetFine(_ context.Context, id int64) (*models.Fine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fine, ok := r.fines[id]
	if !ok {
		return nil, nil
	}
	r.fillFineTitleLocked(&fine)
	return &fine, nil
}

func (r *MemoryRepository) PayFine(_ context.Context, id int64) (*models.Fine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strconv.FormatInt(id, 10)

	fine, ok := r.fines[id]
	if !ok {
		return nil, apperrors.NotFound("fine", key)
	}
	if fine.Status == models.FineStatusPaid {
		return nil, apperrors.Conflict("fine", key, "already paid")
	}

	now := time.Now().UTC()
	fine.Status = models.FineStatusPaid
	fine.PaidDate = &now
	r.fines[id] = fine

	r.fillFineTitleLocked(&fine)
	return &fine, nil
}

func (r *MemoryRepository) DeleteFine(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fines[id]; !ok {
		return false, nil
	}
	delete(r.fines, id)
	return true, nil
}

func (r *MemoryRepository) fillFineTitleLocked(fine *models.Fine) {
	if transaction, ok := r.transactions[fine.TransactionID]; ok {
		if book, ok := r.books[transaction.BookID]; ok {
			fine.BorrowedBook = book.Title
		}
	}
}
