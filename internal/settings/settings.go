package settings

// DayHours is the opening window of one weekday, "HH:MM" in store local time.
type DayHours struct {
	Open   string `json:"open" validate:"required,hhmm"`
	Close  string `json:"close" validate:"required,hhmm"`
	IsOpen bool   `json:"isOpen"`
}

type OpeningHours struct {
	Monday    DayHours `json:"monday" validate:"required"`
	Tuesday   DayHours `json:"tuesday" validate:"required"`
	Wednesday DayHours `json:"wednesday" validate:"required"`
	Thursday  DayHours `json:"thursday" validate:"required"`
	Friday    DayHours `json:"friday" validate:"required"`
	Saturday  DayHours `json:"saturday" validate:"required"`
	Sunday    DayHours `json:"sunday" validate:"required"`
}

func (h OpeningHours) days() []DayHours {
	return []DayHours{h.Monday, h.Tuesday, h.Wednesday, h.Thursday, h.Friday, h.Saturday, h.Sunday}
}

// StoreSettings is the single store configuration document.
type StoreSettings struct {
	StoreName             string       `json:"storeName" validate:"required,max=200"`
	StorePhone            string       `json:"storePhone" validate:"max=20"`
	StoreEmail            string       `json:"storeEmail" validate:"omitempty,email"`
	StoreAddress          string       `json:"storeAddress" validate:"max=500"`
	DeliveryFee           int64        `json:"deliveryFee" validate:"gte=0"`
	FreeDeliveryThreshold int64        `json:"freeDeliveryThreshold" validate:"gte=0"`
	TaxRate               int          `json:"taxRate" validate:"gte=0,lte=100"`
	OrderStatuses         []string     `json:"orderStatuses" validate:"required,min=1,dive,required"`
	PaymentMethods        []string     `json:"paymentMethods" validate:"required,min=1,dive,required"`
	IsMaintenanceMode     bool         `json:"isMaintenanceMode"`
	MaintenanceMessage    string       `json:"maintenanceMessage" validate:"max=500"`
	OpeningHours          OpeningHours `json:"openingHours"`
}

func everyDay(from, to string) DayHours {
	return DayHours{Open: from, Close: to, IsOpen: true}
}

// Defaults is returned until an admin saves settings for the first time.
func Defaults() StoreSettings {
	day := everyDay("08:00", "22:00")
	return StoreSettings{
		StoreName:             "Thức Uống Việt Nam",
		DeliveryFee:           15000,
		FreeDeliveryThreshold: 100000,
		TaxRate:               10,
		OrderStatuses:         []string{"pending", "confirmed", "preparing", "shipping", "delivered", "cancelled"},
		PaymentMethods:        []string{"COD", "Banking", "Momo"},
		MaintenanceMessage:    "Hệ thống đang bảo trì, vui lòng quay lại sau.",
		OpeningHours: OpeningHours{
			Monday: day, Tuesday: day, Wednesday: day, Thursday: day,
			Friday: day, Saturday: day, Sunday: day,
		},
	}
}
