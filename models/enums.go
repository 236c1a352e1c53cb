package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/twhracing/distributor_backend/utils"
)

type PriceTierCode string

const (
	PriceTierCodeBayu   PriceTierCode = "bayu"
	PriceTierCodeDealer PriceTierCode = "dealer"
	PriceTierCodePriceA PriceTierCode = "price_a"
	PriceTierCodePriceB PriceTierCode = "price_b"
	PriceTierCodeHet    PriceTierCode = "het"
)

// CostTierCode is the tier whose price is the commission cost basis.
const CostTierCode = PriceTierCodeBayu

var priceTierCodes = map[string]PriceTierCode{
	"bayu":    PriceTierCodeBayu,
	"dealer":  PriceTierCodeDealer,
	"price_a": PriceTierCodePriceA,
	"price_b": PriceTierCodePriceB,
	"het":     PriceTierCodeHet,
}

func (t PriceTierCode) IsValid() bool {
	_, ok := priceTierCodes[string(t)]
	return ok
}

// IsInvoiceTier reports whether an invoice may be priced at this tier.
func (t PriceTierCode) IsInvoiceTier() bool {
	return t == PriceTierCodePriceA || t == PriceTierCodePriceB || t == PriceTierCodeDealer
}

func (t *PriceTierCode) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("price tier code must be string")
	}
	v, ok := priceTierCodes[str]
	if !ok {
		return errors.New("invalid price tier code")
	}
	*t = v
	return nil
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusConfirmed InvoiceStatus = "confirmed"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// statuses that hold an open receivable
var OpenInvoiceStatuses = []InvoiceStatus{InvoiceStatusConfirmed, InvoiceStatusPartial, InvoiceStatusOverdue}

// statuses counted as sales
var SalesInvoiceStatuses = []InvoiceStatus{InvoiceStatusConfirmed, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusOverdue}

func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusConfirmed || s == InvoiceStatusPartial || s == InvoiceStatusOverdue
}

// IsSettlementTracked is true for statuses whose value follows the payment ledger.
func (s InvoiceStatus) IsSettlementTracked() bool {
	return s.IsOpen() || s == InvoiceStatusPaid
}

type PaymentType string

const (
	PaymentTypeCash  PaymentType = "cash"
	PaymentTypeTempo PaymentType = "tempo"
)

func (t *PaymentType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("payment type must be string")
	}
	switch str {
	case "cash":
		*t = PaymentTypeCash
	case "tempo":
		*t = PaymentTypeTempo
	default:
		return errors.New("invalid payment type")
	}
	return nil
}

type PaymentStatus string

const (
	PaymentStatusDraft     PaymentStatus = "draft"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodBankBCA     PaymentMethod = "bank_bca"
	PaymentMethodBankMandiri PaymentMethod = "bank_mandiri"
	PaymentMethodBankBNI     PaymentMethod = "bank_bni"
	PaymentMethodBankBRI     PaymentMethod = "bank_bri"
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodGiro        PaymentMethod = "giro"
	PaymentMethodOther       PaymentMethod = "other"
)

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentMethodBankBCA:     "Transfer BCA",
	PaymentMethodBankMandiri: "Transfer Mandiri",
	PaymentMethodBankBNI:     "Transfer BNI",
	PaymentMethodBankBRI:     "Transfer BRI",
	PaymentMethodCash:        "Tunai",
	PaymentMethodGiro:        "Giro",
	PaymentMethodOther:       "Lainnya",
}

func (m PaymentMethod) IsValid() bool {
	_, ok := paymentMethodLabels[m]
	return ok
}

func (m PaymentMethod) Label() string {
	if l, ok := paymentMethodLabels[m]; ok {
		return l
	}
	return string(m)
}

func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("payment method must be string")
	}
	v := PaymentMethod(str)
	if !v.IsValid() {
		return errors.New("invalid payment method")
	}
	*m = v
	return nil
}

type CommissionStatus string

const (
	CommissionStatusDraft     CommissionStatus = "draft"
	CommissionStatusConfirmed CommissionStatus = "confirmed"
	CommissionStatusPaid      CommissionStatus = "paid"
)

type ReminderType string

const (
	ReminderTypeDaily   ReminderType = "daily"
	ReminderType7Days   ReminderType = "7_days"
	ReminderType3Days   ReminderType = "3_days"
	ReminderTypeDueDate ReminderType = "due_date"
	ReminderTypeOverdue ReminderType = "overdue"
)

// milestone reminders keyed by days until due
var milestoneReminderTypes = map[int]ReminderType{
	7: ReminderType7Days,
	3: ReminderType3Days,
	0: ReminderTypeDueDate,
}

type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusDismissed ReminderStatus = "dismissed"
)

type ActivityKind string

const (
	ActivityKindMessage ActivityKind = "message"
	ActivityKindTodo    ActivityKind = "todo"
)

type SalesOrderState string

const (
	SalesOrderStateDraft  SalesOrderState = "draft"
	SalesOrderStateSent   SalesOrderState = "sent"
	SalesOrderStateSale   SalesOrderState = "sale"
	SalesOrderStateDone   SalesOrderState = "done"
	SalesOrderStateCancel SalesOrderState = "cancel"
)

func (s SalesOrderState) IsConfirmed() bool {
	return s == SalesOrderStateSale || s == SalesOrderStateDone
}

type CustomerType string

const (
	CustomerTypeRetail      CustomerType = "retail"
	CustomerTypeWorkshop    CustomerType = "workshop"
	CustomerTypeDealer      CustomerType = "dealer"
	CustomerTypeDistributor CustomerType = "distributor"
)

func (t *CustomerType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("customer type must be string")
	}
	switch CustomerType(str) {
	case CustomerTypeRetail, CustomerTypeWorkshop, CustomerTypeDealer, CustomerTypeDistributor:
		*t = CustomerType(str)
	default:
		return errors.New("invalid customer type")
	}
	return nil
}

type ProductCategory string

const (
	ProductCategoryGearRatio    ProductCategory = "gear_ratio"
	ProductCategoryCrankshaft   ProductCategory = "crankshaft"
	ProductCategoryCylinder     ProductCategory = "cylinder"
	ProductCategoryCylinderHead ProductCategory = "cylinder_head"
	ProductCategoryStarter      ProductCategory = "starter"
	ProductCategoryRoller       ProductCategory = "roller"
	ProductCategoryJet          ProductCategory = "jet"
	ProductCategoryTransmission ProductCategory = "transmission"
	ProductCategoryClutch       ProductCategory = "clutch"
	ProductCategoryPulley       ProductCategory = "pulley"
	ProductCategorySpring       ProductCategory = "spring"
	ProductCategoryValve        ProductCategory = "valve"
	ProductCategoryPiston       ProductCategory = "piston"
	ProductCategoryRing         ProductCategory = "ring"
	ProductCategoryOther        ProductCategory = "other"
)

type BikeBrand string

const (
	BikeBrandYamaha   BikeBrand = "yamaha"
	BikeBrandHonda    BikeBrand = "honda"
	BikeBrandSuzuki   BikeBrand = "suzuki"
	BikeBrandKawasaki BikeBrand = "kawasaki"
	BikeBrandOther    BikeBrand = "other"
)

// MyDateString is a calendar date carried as "2006-01-02" in JSON.
type MyDateString time.Time

func (t MyDateString) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Time(t).Format(utils.DateLayout))), nil
}

func (t *MyDateString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("date must be string")
	}
	if str == "" {
		*t = MyDateString(time.Time{})
		return nil
	}
	localTime, err := time.Parse(utils.DateLayout, str)
	if err != nil {
		return errors.New("error parsing date, expected YYYY-MM-DD")
	}
	*t = MyDateString(localTime)
	return nil
}

// InLocation returns the date at midnight in loc.
func (t MyDateString) InLocation(loc *time.Location) time.Time {
	v := time.Time(t)
	if loc == nil {
		loc = time.Local
	}
	return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, loc)
}

func (t MyDateString) IsZero() bool {
	return time.Time(t).IsZero()
}

// Value implements the driver.Valuer interface
func (t MyDateString) Value() (driver.Value, error) {
	return time.Time(t), nil
}

// Scan implements the sql.Scanner interface
func (t *MyDateString) Scan(value interface{}) error {
	if value == nil {
		*t = MyDateString(time.Time{})
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		*t = MyDateString(v)
	default:
		return fmt.Errorf("cannot convert %T to MyDateString", value)
	}
	return nil
}

func (t *MyDateString) SetDefaultNowIfNil(loc *time.Location) *MyDateString {
	if t == nil || t.IsZero() {
		now := MyDateString(utils.TruncateToDate(time.Now(), loc))
		return &now
	}
	return t
}
