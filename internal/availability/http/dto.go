package http

// DayQuery selects one offering-date pair.
type DayQuery struct {
	OfferingID string `form:"offering_id" binding:"required,uuid"`
	Date       string `form:"date" binding:"required,datetime=2006-01-02"`
}

// SlotQuery selects one concrete slot window.
type SlotQuery struct {
	OfferingID string `form:"offering_id" binding:"required,uuid"`
	Date       string `form:"date" binding:"required,datetime=2006-01-02"`
	Time       string `form:"time" binding:"required,datetime=15:04:05"`
}

// MonthQuery selects a whole calendar month for one offering.
type MonthQuery struct {
	OfferingID string `form:"offering_id" binding:"required,uuid"`
	Month      string `form:"month" binding:"required,datetime=2006-01"`
}
