package cart

import (
	"context"
	"testing"

	"github.com/MuhammadAwais984/storefront/internal/domain/product"
	"github.com/MuhammadAwais984/storefront/internal/pkg/apperror"
	"github.com/MuhammadAwais984/storefront/internal/pkg/logger"
	"github.com/MuhammadAwais984/storefront/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type CartServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	mr      *miniredis.Miniredis
	service *Service
	laptop  product.Product
	mouse   product.Product
	ctx     context.Context
}

func TestCartServiceSuite(t *testing.T) {
	suite.Run(t, new(CartServiceSuite))
}

func (s *CartServiceSuite) SetupTest() {
	t := s.T()
	s.ctx = context.Background()
	s.db = testutil.NewDB(t, &product.Category{}, &product.Product{}, &product.ProductImage{}, &CartItem{})
	rdb, mr := testutil.NewRedis(t)
	s.mr = mr
	s.service = NewService(s.db, rdb, testutil.Config(t), logger.Discard())

	category := product.Category{Name: "Electronics", Slug: "electronics"}
	require.NoError(t, s.db.Create(&category).Error)
	s.laptop = product.Product{Name: "Laptop", Price: decimal.NewFromInt(500), CategoryID: category.ID}
	s.mouse = product.Product{Name: "Mouse", Price: decimal.RequireFromString("19.99"), CategoryID: category.ID}
	require.NoError(t, s.db.Create(&s.laptop).Error)
	require.NoError(t, s.db.Create(&s.mouse).Error)
}

func (s *CartServiceSuite) userCart(userID uint) Cart {
	c, err := s.service.For(&userID, "")
	s.Require().NoError(err)
	return c
}

func (s *CartServiceSuite) sessionCart(id string) Cart {
	c, err := s.service.For(nil, id)
	s.Require().NoError(err)
	return c
}

// both implementations must honor the same contract
func (s *CartServiceSuite) carts() map[string]Cart {
	return map[string]Cart{
		"user":    s.userCart(1),
		"session": s.sessionCart("sess-1"),
	}
}

func (s *CartServiceSuite) TestAddTwiceSumsQuantity() {
	for name, c := range s.carts() {
		s.Run(name, func() {
			s.Require().NoError(c.Add(s.ctx, s.laptop.ID, 2))
			s.Require().NoError(c.Add(s.ctx, s.laptop.ID, 3))

			lines, err := c.Lines(s.ctx)
			s.Require().NoError(err)
			s.Require().Len(lines, 1)
			s.Equal(5, lines[0].Quantity)
			s.Equal("Laptop", lines[0].Product.Name)
			s.True(lines[0].LineTotal.Equal(decimal.NewFromInt(2500)))
		})
	}

	var rows int64
	s.db.Model(&CartItem{}).Where("user_id = ? AND product_id = ?", 1, s.laptop.ID).Count(&rows)
	s.Equal(int64(1), rows)
}

func (s *CartServiceSuite) TestConcurrentAddsOfNewLine() {
	c := s.service.UserCart(7)

	var g errgroup.Group
	for i := 0; i < 6; i++ {
		g.Go(func() error {
			return c.Add(s.ctx, s.mouse.ID, 1)
		})
	}
	s.Require().NoError(g.Wait())

	var item CartItem
	s.Require().NoError(s.db.Where("user_id = ? AND product_id = ?", 7, s.mouse.ID).First(&item).Error)
	s.Equal(6, item.Quantity)
}

func (s *CartServiceSuite) TestAddDefaultsQuantityToOne() {
	for name, c := range s.carts() {
		s.Run(name, func() {
			s.Require().NoError(c.Add(s.ctx, s.mouse.ID, 0))
			lines, err := c.Lines(s.ctx)
			s.Require().NoError(err)
			s.Require().Len(lines, 1)
			s.Equal(1, lines[0].Quantity)
		})
	}
}

func (s *CartServiceSuite) TestAddMissingProduct() {
	for name, c := range s.carts() {
		s.Run(name, func() {
			err := c.Add(s.ctx, 9999, 1)
			s.ErrorIs(err, apperror.ErrNotFound)
		})
	}
}

func (s *CartServiceSuite) TestSetQuantity() {
	for name, c := range s.carts() {
		s.Run(name, func() {
			s.ErrorIs(c.SetQuantity(s.ctx, s.laptop.ID, 3), apperror.ErrNotFound)

			s.Require().NoError(c.Add(s.ctx, s.laptop.ID, 1))
			s.Require().NoError(c.SetQuantity(s.ctx, s.laptop.ID, 4))
			lines, err := c.Lines(s.ctx)
			s.Require().NoError(err)
			s.Require().Len(lines, 1)
			s.Equal(4, lines[0].Quantity)

			s.Require().NoError(c.SetQuantity(s.ctx, s.laptop.ID, 0))
			lines, err = c.Lines(s.ctx)
			s.Require().NoError(err)
			s.Empty(lines)
		})
	}
}

func (s *CartServiceSuite) TestRemoveIsIdempotent() {
	for name, c := range s.carts() {
		s.Run(name, func() {
			s.Require().NoError(c.Add(s.ctx, s.laptop.ID, 1))
			s.Require().NoError(c.Add(s.ctx, s.mouse.ID, 1))

			s.Require().NoError(c.Remove(s.ctx, s.laptop.ID))
			s.Require().NoError(c.Remove(s.ctx, s.laptop.ID))

			lines, err := c.Lines(s.ctx)
			s.Require().NoError(err)
			s.Require().Len(lines, 1)
			s.Equal(s.mouse.ID, lines[0].ProductID)
		})
	}
}

func (s *CartServiceSuite) TestSummarizeTotals() {
	c := s.userCart(7)
	s.Require().NoError(c.Add(s.ctx, s.laptop.ID, 2))
	s.Require().NoError(c.Add(s.ctx, s.mouse.ID, 1))

	resp, err := s.service.Summarize(s.ctx, c)
	s.Require().NoError(err)
	s.False(resp.Guest)
	s.Equal(2, resp.Totals.ItemCount)
	s.Equal(3, resp.Totals.TotalQuantity)
	s.True(resp.Totals.SubTotal.Equal(decimal.RequireFromString("1019.99")), resp.Totals.SubTotal.String())
}

func (s *CartServiceSuite) TestSessionCartExpires() {
	c := s.sessionCart("short-lived")
	s.Require().NoError(c.Add(s.ctx, s.laptop.ID, 1))
	s.True(s.mr.Exists("cart:session:short-lived"))

	s.mr.FastForward(testutil.Config(s.T()).Cart.SessionTTL + 1)
	lines, err := c.Lines(s.ctx)
	s.Require().NoError(err)
	s.Empty(lines)
}

func (s *CartServiceSuite) TestMergeSessionIntoUserCart() {
	const userID uint = 3
	user := s.userCart(userID)
	s.Require().NoError(user.Add(s.ctx, s.laptop.ID, 1))

	session := s.sessionCart("visitor")
	s.Require().NoError(session.Add(s.ctx, s.laptop.ID, 2))
	s.Require().NoError(session.Add(s.ctx, s.mouse.ID, 1))

	merged, err := s.service.Merge(s.ctx, userID, "visitor")
	s.Require().NoError(err)
	s.Equal(2, merged)

	lines, err := user.Lines(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(lines, 2)
	quantities := map[uint]int{}
	for _, l := range lines {
		quantities[l.ProductID] = l.Quantity
	}
	s.Equal(3, quantities[s.laptop.ID])
	s.Equal(1, quantities[s.mouse.ID])

	s.False(s.mr.Exists("cart:session:visitor"))

	merged, err = s.service.Merge(s.ctx, userID, "visitor")
	s.Require().NoError(err)
	s.Zero(merged)
}

func (s *CartServiceSuite) TestSessionCartRequiresSessionID() {
	_, err := s.service.For(nil, "")
	s.ErrorIs(err, apperror.ErrInvalid)
}
