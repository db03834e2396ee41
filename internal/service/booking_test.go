package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gomate/internal/domain"
	"gomate/internal/repository"
)

func newBookingFixture() (*BookingService, *TripLedger) {
	f := newScheduleFixture()
	ledger := NewTripLedger(f.store, nil, nil, nil)

	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("TKT-%d", n)
	}
	return NewBookingService(f.svc, ledger, ids, nil), ledger
}

func TestBooking_BookPricesFromClass(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newBookingFixture()

	ticket, err := svc.Book(ctx, BookRequest{RouteID: "route_001", Passengers: 2, Class: "1st class"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ticket.TicketID != "TKT-1" {
		t.Errorf("expected generated id TKT-1, got %s", ticket.TicketID)
	}
	if ticket.Class != "1st Class" {
		t.Errorf("expected canonical class name, got %s", ticket.Class)
	}
	if ticket.Price != 2400 || ticket.TotalPrice != 4800 {
		t.Errorf("expected 2400 x 2 = 4800, got %d and %d", ticket.Price, ticket.TotalPrice)
	}
	if ticket.BookedAt.IsZero() {
		t.Error("expected bookedAt to be set")
	}

	history := ledger.List(ctx)
	if len(history) != 1 || history[0].ID != "TKT-1" || history[0].TotalPrice != 4800 {
		t.Errorf("expected the ticket in the history, got %+v", history)
	}
}

func TestBooking_DefaultClassIsBaseFare(t *testing.T) {
	svc, _ := newBookingFixture()

	ticket, err := svc.Book(context.Background(), BookRequest{RouteID: "route_003", Passengers: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Class != "Standard" || ticket.TotalPrice != 850 {
		t.Errorf("expected Standard at 850, got %s at %d", ticket.Class, ticket.TotalPrice)
	}
}

func TestBooking_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBookingFixture()

	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{name: "no route", req: BookRequest{Passengers: 1}, want: ErrInvalidRouteID},
		{name: "zero passengers", req: BookRequest{RouteID: "route_001"}, want: ErrInvalidPassengers},
		{name: "negative passengers", req: BookRequest{RouteID: "route_001", Passengers: -1}, want: ErrInvalidPassengers},
		{name: "unknown class", req: BookRequest{RouteID: "route_003", Passengers: 1, Class: "1st Class"}, want: ErrInvalidTicketClass},
		{name: "unknown route", req: BookRequest{RouteID: "route_999", Passengers: 1}, want: ErrRouteNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if len(svc.Wallet()) != 0 {
		t.Error("failed bookings must not reach the wallet")
	}
}

func TestBooking_WalletMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBookingFixture()

	for _, id := range []string{"route_001", "route_003"} {
		if _, err := svc.Book(ctx, BookRequest{RouteID: id, Passengers: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	wallet := svc.Wallet()
	if len(wallet) != 2 || wallet[0].RouteID != "route_003" || wallet[1].RouteID != "route_001" {
		t.Errorf("unexpected wallet order %+v", wallet)
	}

	wallet[0].Name = "changed"
	if svc.Wallet()[0].Name == "changed" {
		t.Error("wallet must return a copy")
	}
}

func TestBooking_FailedHistoryWriteLeavesWalletEmpty(t *testing.T) {
	f := newScheduleFixture()
	ledger := NewTripLedger(f.store, nil, nil, nil)
	svc := NewBookingService(f.svc, ledger, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Book(ctx, BookRequest{RouteID: "route_001", Passengers: 1}); err == nil {
		t.Fatal("expected an error for a cancelled booking")
	}

	f.store.SetErrors(errStoreDown, nil)
	if _, err := svc.Book(context.Background(), BookRequest{RouteID: "route_001", Passengers: 1}); !errors.Is(err, repository.ErrStorageIO) {
		t.Fatalf("expected ErrStorageIO, got %v", err)
	}

	if got := svc.Wallet(); len(got) != 0 {
		t.Errorf("expected no ticket in the wallet, got %+v", got)
	}
}

func TestFavorites_Toggle(t *testing.T) {
	svc := NewFavoritesService()

	item := domain.Favorite{ID: "route_001", Name: "Colombo to Kandy Express"}
	if added, _ := svc.Toggle(item); !added {
		t.Error("expected first toggle to add")
	}
	if _, err := svc.Toggle(domain.Favorite{ID: "route_002"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added, _ := svc.Toggle(item); added {
		t.Error("expected second toggle to remove")
	}

	list := svc.List()
	if len(list) != 1 || list[0].ID != "route_002" {
		t.Errorf("unexpected favorites %+v", list)
	}
	if _, err := svc.Toggle(domain.Favorite{}); !errors.Is(err, ErrInvalidFavorite) {
		t.Errorf("expected ErrInvalidFavorite, got %v", err)
	}
}
