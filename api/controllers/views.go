package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/usxc/classroom-library-backend/pkg/db/models"
)

// Wire representations returned to clients. Dates are RFC 3339 except
// PublishedAt, which is a calendar date.

type BookView struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Author      *string    `json:"author,omitempty"`
	ISBN        *string    `json:"isbn,omitempty"`
	Publisher   *string    `json:"publisher,omitempty"`
	PublishedAt *string    `json:"publishedAt,omitempty"`
	Copies      []CopyView `json:"copies,omitempty"`
}

type CopyView struct {
	ID     uuid.UUID `json:"id"`
	BookID uuid.UUID `json:"bookId"`
	Code   string    `json:"code"`
	Status string    `json:"status"`
	Book   *BookView `json:"book,omitempty"`
}

type LoanView struct {
	ID         uuid.UUID  `json:"id"`
	CopyID     uuid.UUID  `json:"copyId"`
	UserID     string     `json:"userId"`
	CheckoutAt time.Time  `json:"checkoutAt"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
	Copy       *CopyView  `json:"copy,omitempty"`
}

func bookView(book *models.Book) BookView {
	view := BookView{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		ISBN:      book.ISBN,
		Publisher: book.Publisher,
	}
	if book.PublishedAt != nil {
		date := book.PublishedAt.Format("2006-01-02")
		view.PublishedAt = &date
	}
	for i := range book.Copies {
		view.Copies = append(view.Copies, copyView(&book.Copies[i]))
	}
	return view
}

func copyView(copy *models.Copy) CopyView {
	view := CopyView{
		ID:     copy.ID,
		BookID: copy.BookID,
		Code:   copy.Code,
		Status: string(copy.Status),
	}
	if copy.Book != nil {
		book := bookView(copy.Book)
		view.Book = &book
	}
	return view
}

func loanView(loan *models.Loan) LoanView {
	view := LoanView{
		ID:         loan.ID,
		CopyID:     loan.CopyID,
		UserID:     loan.UserID,
		CheckoutAt: loan.CheckoutAt,
		ReturnedAt: loan.ReturnedAt,
	}
	if loan.Copy != nil {
		copy := copyView(loan.Copy)
		view.Copy = &copy
	}
	return view
}
