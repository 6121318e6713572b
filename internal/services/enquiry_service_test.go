// internal/services/enquiry_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/testutil"
	"github.com/biologist/catalog-backend/internal/utils"
)

type EnquiryServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *EnquiryService
	product models.Product
	variant models.ProductVariant
	other   models.ProductVariant
}

func (suite *EnquiryServiceTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.service = NewEnquiryService(suite.db, nil)

	category := models.Category{Name: "Reagents", Slug: "reagents"}
	require.NoError(suite.T(), suite.db.Create(&category).Error)

	suite.product = models.Product{Name: "Kit A", Slug: "kit-a", CategoryID: category.ID}
	require.NoError(suite.T(), suite.db.Create(&suite.product).Error)
	otherProduct := models.Product{Name: "Kit B", Slug: "kit-b", CategoryID: category.ID}
	require.NoError(suite.T(), suite.db.Create(&otherProduct).Error)

	suite.variant = models.ProductVariant{ProductID: suite.product.ID, CatalogNumber: "A-1", Quantity: "10", Unit: "ml"}
	require.NoError(suite.T(), suite.db.Create(&suite.variant).Error)
	suite.other = models.ProductVariant{ProductID: otherProduct.ID, CatalogNumber: "B-1", Quantity: "1"}
	require.NoError(suite.T(), suite.db.Create(&suite.other).Error)
}

func (suite *EnquiryServiceTestSuite) request() *CreateEnquiryRequest {
	return &CreateEnquiryRequest{
		ProductID: suite.product.ID.String(),
		VariantID: suite.variant.ID.String(),
		Name:      "  Ada Lovelace ",
		Email:     "ada@example.com",
		Phone:     "+44 20 7946 0000",
		Message:   "Bulk pricing?",
	}
}

func (suite *EnquiryServiceTestSuite) TestCreateEnquiry() {
	enquiry, err := suite.service.CreateEnquiry(suite.request())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Ada Lovelace", enquiry.Name)
	assert.Equal(suite.T(), suite.variant.ID, enquiry.VariantID)

	enquiries, total, err := suite.service.ListEnquiries(utils.DefaultPagination(10))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), total)
	require.Len(suite.T(), enquiries, 1)
	require.NotNil(suite.T(), enquiries[0].Product)
	assert.Equal(suite.T(), "Kit A", enquiries[0].Product.Name)
	require.NotNil(suite.T(), enquiries[0].Variant)
	assert.Equal(suite.T(), "A-1", enquiries[0].Variant.CatalogNumber)
}

func (suite *EnquiryServiceTestSuite) TestValidation() {
	req := suite.request()
	req.Email = "not-an-email"
	req.Phone = "call me maybe"
	req.Name = ""

	_, err := suite.service.CreateEnquiry(req)
	fields := map[string]bool{}
	for _, v := range utils.GetValidationErrors(err) {
		fields[v.Field] = true
	}
	assert.True(suite.T(), fields["email"])
	assert.True(suite.T(), fields["phone"])
	assert.True(suite.T(), fields["name"])
}

func (suite *EnquiryServiceTestSuite) TestVariantMustBelongToProduct() {
	req := suite.request()
	req.VariantID = suite.other.ID.String()

	_, err := suite.service.CreateEnquiry(req)
	assert.ErrorIs(suite.T(), err, ErrVariantMismatch)
}

func (suite *EnquiryServiceTestSuite) TestUnknownReferences() {
	req := suite.request()
	req.ProductID = uuid.NewString()
	_, err := suite.service.CreateEnquiry(req)
	assert.ErrorIs(suite.T(), err, ErrProductNotFound)

	req = suite.request()
	req.VariantID = uuid.NewString()
	_, err = suite.service.CreateEnquiry(req)
	assert.ErrorIs(suite.T(), err, ErrVariantNotFound)
}

func TestEnquiryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EnquiryServiceTestSuite))
}
