package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/gescom/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// CustomerType represents the type of customer
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual" // Personal customer
	CustomerTypeCompany    CustomerType = "company"    // SARL, EURL, SPA, ETS...
)

// LoyaltyTier represents the customer's loyalty tier, derived from
// accumulated loyalty points
type LoyaltyTier string

const (
	LoyaltyTierBronze   LoyaltyTier = "bronze"
	LoyaltyTierSilver   LoyaltyTier = "silver"
	LoyaltyTierGold     LoyaltyTier = "gold"
	LoyaltyTierPlatinum LoyaltyTier = "platinum"
)

// Tier thresholds in points
const (
	silverThreshold   = 500
	goldThreshold     = 2000
	platinumThreshold = 5000
)

// TierForPoints derives the loyalty tier from a points balance
func TierForPoints(points int64) LoyaltyTier {
	switch {
	case points >= platinumThreshold:
		return LoyaltyTierPlatinum
	case points >= goldThreshold:
		return LoyaltyTierGold
	case points >= silverThreshold:
		return LoyaltyTierSilver
	default:
		return LoyaltyTierBronze
	}
}

// Customer represents a customer in the partner context.
// It is the aggregate root for customer-related operations. Fiscal
// identifiers follow the Algerian registry: NIF (numero d'identification
// fiscale), NIS (numero d'identification statistique) and RC (registre de
// commerce).
type Customer struct {
	shared.BaseAggregateRoot
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Type          CustomerType    `gorm:"type:varchar(20);not null;default:'individual'"`
	Status        CustomerStatus  `gorm:"type:varchar(20);not null;default:'active'"`
	ContactName   string          `gorm:"type:varchar(100)"`
	Phone         string          `gorm:"type:varchar(50);index"`
	Email         string          `gorm:"type:varchar(200);index"`
	Address       string          `gorm:"type:text"`
	Wilaya        string          `gorm:"type:varchar(100)"`
	Daira         string          `gorm:"type:varchar(100)"`
	Commune       string          `gorm:"type:varchar(100)"`
	NIF           string          `gorm:"type:varchar(20);index"`
	NIS           string          `gorm:"type:varchar(20)"`
	RC            string          `gorm:"type:varchar(30)"`
	CreditLimit   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LoyaltyPoints int64           `gorm:"not null;default:0"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer with required fields
func NewCustomer(code, name string, customerType CustomerType) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	if err := validateCustomerType(customerType); err != nil {
		return nil, err
	}

	customer := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Type:              customerType,
		Status:            CustomerStatusActive,
		CreditLimit:       decimal.Zero,
		LoyaltyPoints:     0,
	}

	customer.AddDomainEvent(NewCustomerCreatedEvent(customer))

	return customer, nil
}

// Update updates the customer's basic information
func (c *Customer) Update(name string, customerType CustomerType) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	if err := validateCustomerType(customerType); err != nil {
		return err
	}

	c.Name = name
	c.Type = customerType
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerUpdatedEvent(c))

	return nil
}

// SetContact sets the customer's contact information
func (c *Customer) SetContact(contactName, phone, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	c.ContactName = contactName
	c.Phone = phone
	c.Email = email
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetAddress sets the customer's address within the Algerian administrative
// division (wilaya, daira, commune)
func (c *Customer) SetAddress(address, wilaya, daira, commune string) error {
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if wilaya != "" && len(wilaya) > 100 {
		return shared.NewDomainError("INVALID_WILAYA", "Wilaya cannot exceed 100 characters")
	}
	if daira != "" && len(daira) > 100 {
		return shared.NewDomainError("INVALID_DAIRA", "Daira cannot exceed 100 characters")
	}
	if commune != "" && len(commune) > 100 {
		return shared.NewDomainError("INVALID_COMMUNE", "Commune cannot exceed 100 characters")
	}

	c.Address = address
	c.Wilaya = wilaya
	c.Daira = daira
	c.Commune = commune
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetFiscalIdentifiers sets the Algerian fiscal identifiers.
// NIF is 15 digits, NIS is 15 digits, RC follows the commerce registry
// format. Empty values clear the identifier.
func (c *Customer) SetFiscalIdentifiers(nif, nis, rc string) error {
	if nif != "" && !nifRegex.MatchString(nif) {
		return shared.NewDomainError("INVALID_NIF", "NIF must be 15 digits")
	}
	if nis != "" && !nifRegex.MatchString(nis) {
		return shared.NewDomainError("INVALID_NIS", "NIS must be 15 digits")
	}
	if rc != "" && len(rc) > 30 {
		return shared.NewDomainError("INVALID_RC", "RC cannot exceed 30 characters")
	}

	c.NIF = nif
	c.NIS = nis
	c.RC = rc
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetCreditLimit sets the customer's credit limit
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}

	c.CreditLimit = limit
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// AddLoyaltyPoints credits loyalty points to the customer
func (c *Customer) AddLoyaltyPoints(points int64) error {
	if points <= 0 {
		return shared.NewDomainError("INVALID_POINTS", "Points must be positive")
	}

	oldTier := c.Tier()
	c.LoyaltyPoints += points
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	if newTier := c.Tier(); newTier != oldTier {
		c.AddDomainEvent(NewCustomerTierChangedEvent(c, oldTier, newTier))
	}

	return nil
}

// RedeemLoyaltyPoints debits loyalty points from the customer's balance
func (c *Customer) RedeemLoyaltyPoints(points int64) error {
	if points <= 0 {
		return shared.NewDomainError("INVALID_POINTS", "Points must be positive")
	}
	if points > c.LoyaltyPoints {
		return shared.ErrInsufficientPoints
	}

	oldTier := c.Tier()
	c.LoyaltyPoints -= points
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	if newTier := c.Tier(); newTier != oldTier {
		c.AddDomainEvent(NewCustomerTierChangedEvent(c, oldTier, newTier))
	}

	return nil
}

// Tier returns the loyalty tier derived from the current points balance
func (c *Customer) Tier() LoyaltyTier {
	return TierForPoints(c.LoyaltyPoints)
}

// SetNotes sets the customer's notes
func (c *Customer) SetNotes(notes string) {
	c.Notes = notes
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Activate activates the customer
func (c *Customer) Activate() error {
	if c.Status == CustomerStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Customer is already active")
	}

	c.Status = CustomerStatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, CustomerStatusInactive, CustomerStatusActive))

	return nil
}

// Deactivate deactivates the customer
func (c *Customer) Deactivate() error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Customer is already inactive")
	}

	c.Status = CustomerStatusInactive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, CustomerStatusActive, CustomerStatusInactive))

	return nil
}

// IsActive returns true if the customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// IsCompany returns true if the customer is a registered company
func (c *Customer) IsCompany() bool {
	return c.Type == CustomerTypeCompany
}

// HasCreditLimit returns true if a credit limit is set
func (c *Customer) HasCreditLimit() bool {
	return c.CreditLimit.GreaterThan(decimal.Zero)
}

// GetFullAddress returns the formatted full address
func (c *Customer) GetFullAddress() string {
	parts := []string{}
	if c.Address != "" {
		parts = append(parts, c.Address)
	}
	if c.Commune != "" {
		parts = append(parts, c.Commune)
	}
	if c.Daira != "" {
		parts = append(parts, c.Daira)
	}
	if c.Wilaya != "" {
		parts = append(parts, c.Wilaya)
	}
	return strings.Join(parts, ", ")
}

// Validation functions

var (
	nifRegex   = regexp.MustCompile(`^\d{15}$`)
	phoneRegex = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

func validateCustomerCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Customer code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateCustomerType(t CustomerType) error {
	switch t {
	case CustomerTypeIndividual, CustomerTypeCompany:
		return nil
	default:
		return shared.NewDomainError("INVALID_TYPE", "Customer type must be 'individual' or 'company'")
	}
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if !phoneRegex.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
