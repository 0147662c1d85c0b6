package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/gifthouse/pos_backend/config"
	"github.com/gifthouse/pos_backend/utils"
	"github.com/shopspring/decimal"
)

func TestCreateCustomerValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateCustomer(db, ctx, &NewCustomer{Name: "Amina", Email: "not-an-email"}); err == nil {
		t.Error("expected error for invalid email")
	}
	if _, err := CreateCustomer(db, ctx, &NewCustomer{Name: "Amina", Phone: "12"}); err == nil {
		t.Error("expected error for invalid phone")
	}
	if _, err := CreateCustomer(db, ctx, &NewCustomer{Name: "Amina", Status: CustomerStatus("Platinum")}); err == nil {
		t.Error("expected error for unknown status")
	}

	customer, err := CreateCustomer(db, ctx, &NewCustomer{
		Name:  "Amina",
		Email: "amina@example.com",
		Phone: "+971501234567",
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if ok, _ := regexp.MatchString(`^CUST-\d{3,4}$`, customer.CustomerCode); !ok {
		t.Errorf("customer code %q does not match CUST-NNN", customer.CustomerCode)
	}
	if customer.Status != CustomerStatusNew {
		t.Errorf("default status = %s, want New", customer.Status)
	}
	if !customer.StoreCredit.IsZero() {
		t.Errorf("new customer store credit = %s, want 0", customer.StoreCredit)
	}
}

func TestSearchCustomersByPhone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := CreateCustomer(db, ctx, &NewCustomer{Name: "Amina", Phone: "+971501234567"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	// Partial match on the trailing digits.
	found, err := SearchCustomersByPhone(db, ctx, "1234567")
	if err != nil {
		t.Fatalf("SearchCustomersByPhone: %v", err)
	}
	if len(found) != 1 || found[0].ID != created.ID {
		t.Fatalf("search returned %v, want customer %d", found, created.ID)
	}

	// A miss is an empty result without error.
	missing, err := SearchCustomersByPhone(db, ctx, "0000000")
	if err != nil {
		t.Fatalf("SearchCustomersByPhone miss: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("expected no matches, got %v", missing)
	}
}

func TestSearchCustomersByPhoneCapped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < config.SearchLimit+2; i++ {
		if _, err := CreateCustomer(db, ctx, &NewCustomer{
			Name:  fmt.Sprintf("Customer %02d", i),
			Phone: fmt.Sprintf("+9715012345%02d", i),
		}); err != nil {
			t.Fatalf("CreateCustomer %d: %v", i, err)
		}
	}

	found, err := SearchCustomersByPhone(db, ctx, "50123")
	if err != nil {
		t.Fatalf("SearchCustomersByPhone: %v", err)
	}
	if len(found) != config.SearchLimit {
		t.Errorf("matches = %d, want cap %d", len(found), config.SearchLimit)
	}
}

func TestCreditAndDebitStoreCredit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, "Amina")

	credit, err := CreditStoreCredit(db, ctx, customer.ID, decimal.RequireFromString("100.00"), "welcome credit")
	if err != nil {
		t.Fatalf("CreditStoreCredit: %v", err)
	}
	if credit.EntryErr != nil {
		t.Fatalf("credit ledger entry failed: %v", credit.EntryErr)
	}
	if want := decimal.RequireFromString("100.00"); !credit.BalanceAfter.Equal(want) {
		t.Errorf("balance after credit = %s, want %s", credit.BalanceAfter, want)
	}

	debit, err := DebitStoreCredit(db, ctx, customer.ID, 0, decimal.RequireFromString("30.00"))
	if err != nil {
		t.Fatalf("DebitStoreCredit: %v", err)
	}
	if want := decimal.RequireFromString("70.00"); !debit.BalanceAfter.Equal(want) {
		t.Errorf("balance after debit = %s, want %s", debit.BalanceAfter, want)
	}

	entries, err := ListCustomerRewards(db, ctx, customer.ID)
	if err != nil {
		t.Fatalf("ListCustomerRewards: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	var sawRedeem bool
	for _, e := range entries {
		if e.Type == RewardsTransactionTypeRedeemed {
			sawRedeem = true
			if !e.Amount.Equal(decimal.RequireFromString("-30.00")) {
				t.Errorf("redeem amount = %s, want -30.00", e.Amount)
			}
		}
	}
	if !sawRedeem {
		t.Error("no redeemed ledger entry recorded")
	}
}

func TestDebitInsufficientBalanceLeavesBalanceUnchanged(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, "Amina")

	if _, err := CreditStoreCredit(db, ctx, customer.ID, decimal.RequireFromString("20.00"), ""); err != nil {
		t.Fatalf("CreditStoreCredit: %v", err)
	}

	_, err := DebitStoreCredit(db, ctx, customer.ID, 0, decimal.RequireFromString("50.00"))
	if !errors.Is(err, utils.ErrorInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	reloaded, err := GetCustomer(db, ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if want := decimal.RequireFromString("20.00"); !reloaded.StoreCredit.Equal(want) {
		t.Errorf("balance after failed debit = %s, want %s", reloaded.StoreCredit, want)
	}

	// No ledger entry for a rejected debit.
	entries, err := ListCustomerRewards(db, ctx, customer.ID)
	if err != nil {
		t.Fatalf("ListCustomerRewards: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(entries))
	}
}

func TestDebitMissingCustomer(t *testing.T) {
	db := newTestDB(t)

	_, err := DebitStoreCredit(db, context.Background(), 9999, 0, decimal.RequireFromString("10.00"))
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected record-not-found, got %v", err)
	}
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, "Amina")

	for _, amount := range []string{"0", "-5.00"} {
		if _, err := CreditStoreCredit(db, ctx, customer.ID, decimal.RequireFromString(amount), ""); !errors.Is(err, utils.ErrorInvalidAmount) {
			t.Errorf("credit %s: expected invalid amount, got %v", amount, err)
		}
		if _, err := DebitStoreCredit(db, ctx, customer.ID, 0, decimal.RequireFromString(amount)); !errors.Is(err, utils.ErrorInvalidAmount) {
			t.Errorf("debit %s: expected invalid amount, got %v", amount, err)
		}
	}
}

func TestRecordCashbackEarned(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer := seedCustomer(t, db, "Amina")

	result, err := RecordCashbackEarned(db, ctx, customer.ID, 0, decimal.RequireFromString("10.50"))
	if err != nil {
		t.Fatalf("RecordCashbackEarned: %v", err)
	}
	if result.EntryErr != nil {
		t.Fatalf("cashback ledger entry failed: %v", result.EntryErr)
	}

	reloaded, err := GetCustomer(db, ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	want := decimal.RequireFromString("10.50")
	if !reloaded.StoreCredit.Equal(want) {
		t.Errorf("store credit = %s, want %s", reloaded.StoreCredit, want)
	}
	if !reloaded.RewardsEarned.Equal(want) {
		t.Errorf("rewards earned = %s, want %s", reloaded.RewardsEarned, want)
	}
}
