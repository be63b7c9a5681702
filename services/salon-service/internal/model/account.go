package model

import "time"

type User struct {
	ID           string    `json:"userID"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Owner struct {
	OwnerID      string    `json:"ownerID"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Note         string    `json:"note,omitempty"`
	TotalRevenue float64   `json:"totalRevenue"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Staff is an employee profile. CreatedBy is the owner (or staff creator)
// that hired them and WorkLocation joins them to salon locations.
type Staff struct {
	EmployeeID        string     `json:"employeeID"`
	CreatedBy         string     `json:"created_by"`
	Name              string     `json:"name"`
	Role              string     `json:"role,omitempty"`
	WorkLocation      string     `json:"workLocation,omitempty"`
	Salary            float64    `json:"salary"`
	Phone             string     `json:"phone"`
	Email             string     `json:"email"`
	Availability      int        `json:"availability"`
	Experience        int        `json:"experience"`
	Specialization    string     `json:"specialization,omitempty"`
	HireDate          *time.Time `json:"hireDate,omitempty"`
	PerformanceRating *float64   `json:"performanceRating,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
