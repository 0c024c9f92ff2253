package account

import (
	"context"
	"fmt"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/amirasaad/bankledger/pkg/utils"
)

const (
	numberSuffixMin int64 = 100_000_000_000_000
	numberSuffixMax int64 = 1_000_000_000_000_000
)

// DrawNumber returns a random account number: the 40817 prefix followed by
// 15 digits.
func DrawNumber() (string, error) {
	n, err := utils.RandomInt(numberSuffixMin, numberSuffixMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", account.NumberPrefix, n), nil
}

// uniqueNumber draws account numbers until one is not yet stored.
func uniqueNumber(ctx context.Context, repo repository.AccountRepository, draw func() (string, error)) (string, error) {
	return utils.UniqueNumber(ctx, draw, repo.ExistsByNumber, domain.ErrNumberGenerationExhausted)
}
