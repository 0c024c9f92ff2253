package card_test

import (
	"testing"
	"time"

	"github.com/amirasaad/bankledger/webapi/card"
	"github.com/amirasaad/bankledger/webapi/common"
	"github.com/amirasaad/bankledger/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type CardTestSuite struct {
	testutils.WebAPITestSuite
	user      testutils.TestUser
	accountID string
}

func TestCardTestSuite(t *testing.T) {
	suite.Run(t, new(CardTestSuite))
}

func (s *CardTestSuite) SetupTest() {
	s.WebAPITestSuite.SetupTest()
	s.user = s.RegisterUser()
	s.accountID, _ = s.OpenAccount(s.user.Token, "CHECKING", "RUB")
}

func (s *CardTestSuite) issue(token, accountID string) (int, common.CardView) {
	resp := s.MakeRequest(fiber.MethodPost, "/api/cards", map[string]string{
		"accountId":     accountID,
		"cardType":      "DEBIT",
		"paymentSystem": "MIR",
	}, token)
	if resp.StatusCode != fiber.StatusCreated {
		resp.Body.Close() //nolint:errcheck
		return resp.StatusCode, common.CardView{}
	}
	return resp.StatusCode, testutils.Decode[common.CardView](&s.Suite, resp)
}

func (s *CardTestSuite) TestCreateCard() {
	status, c := s.issue(s.user.Token, s.accountID)
	s.Require().Equal(fiber.StatusCreated, status)
	s.Regexp(`^\*\*\*\* \*\*\*\* \*\*\*\* \d{4}$`, c.CardNumber)
	s.Equal("IVAN PETROV", c.CardHolderName)
	s.Equal("ACTIVE", c.CardStatus)
	s.Equal("DEBIT", c.CardType)
	s.Equal("MIR", c.PaymentSystem)
	s.Equal(s.accountID, c.AccountID.String())

	expiry, err := time.Parse(time.DateOnly, c.ExpiryDate)
	s.Require().NoError(err)
	s.WithinDuration(time.Now().AddDate(5, 0, 0), expiry, 72*time.Hour)

	stranger := s.RegisterUser()
	status, _ = s.issue(stranger.Token, s.accountID)
	s.Equal(fiber.StatusForbidden, status)

	status, _ = s.issue(s.user.Token, uuid.NewString())
	s.Equal(fiber.StatusNotFound, status)

	resp := s.MakeRequest(fiber.MethodPost, "/api/cards", map[string]string{
		"accountId":     s.accountID,
		"cardType":      "PREPAID",
		"paymentSystem": "MIR",
	}, s.user.Token)
	resp.Body.Close() //nolint:errcheck
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)

	admin := s.CreateAdmin()
	status, _ = s.issue(admin.Token, s.accountID)
	s.Equal(fiber.StatusCreated, status, "admins may issue on any account")
}

func (s *CardTestSuite) TestBlockAndUnblock() {
	_, c := s.issue(s.user.Token, s.accountID)
	path := "/api/cards/" + c.ID.String()

	resp := s.MakeRequest(fiber.MethodPatch, path+"/block", nil, s.user.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Equal("BLOCKED", testutils.Decode[common.CardView](&s.Suite, resp).CardStatus)

	resp = s.MakeRequest(fiber.MethodPatch, path+"/block", nil, s.user.Token)
	s.Require().Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Contains(testutils.Decode[common.ErrorResponse](&s.Suite, resp).Message, "already blocked")

	resp = s.MakeRequest(fiber.MethodPatch, path+"/unblock", nil, s.user.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Equal("ACTIVE", testutils.Decode[common.CardView](&s.Suite, resp).CardStatus)

	stranger := s.RegisterUser()
	resp = s.MakeRequest(fiber.MethodPatch, path+"/block", nil, stranger.Token)
	resp.Body.Close() //nolint:errcheck
	s.Equal(fiber.StatusForbidden, resp.StatusCode)

	resp = s.MakeRequest(fiber.MethodPatch, "/api/cards/"+uuid.NewString()+"/block", nil, s.user.Token)
	resp.Body.Close() //nolint:errcheck
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *CardTestSuite) TestReadCards() {
	_, c := s.issue(s.user.Token, s.accountID)
	s.issue(s.user.Token, s.accountID)
	s.Deposit(s.user.Token, s.accountID, "250.00")

	resp := s.MakeRequest(fiber.MethodGet, "/api/cards", nil, s.user.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Len(testutils.Decode[[]common.CardView](&s.Suite, resp), 2)

	resp = s.MakeRequest(fiber.MethodGet, "/api/cards/"+c.ID.String(), nil, s.user.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Equal(c.CardNumber, testutils.Decode[common.CardView](&s.Suite, resp).CardNumber)

	resp = s.MakeRequest(fiber.MethodGet, "/api/cards/"+c.ID.String()+"/balance", nil, s.user.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	bal := testutils.Decode[card.BalanceResponse](&s.Suite, resp)
	s.Equal("250.00", bal.Balance)
	s.Equal("RUB", bal.Currency)
	s.Equal(s.accountID, bal.AccountID)

	stranger := s.RegisterUser()
	resp = s.MakeRequest(fiber.MethodGet, "/api/cards", nil, stranger.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Empty(testutils.Decode[[]common.CardView](&s.Suite, resp))

	resp = s.MakeRequest(fiber.MethodGet, "/api/cards/"+c.ID.String()+"/balance", nil, stranger.Token)
	resp.Body.Close() //nolint:errcheck
	s.Equal(fiber.StatusForbidden, resp.StatusCode)
}
