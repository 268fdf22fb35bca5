package model

import "time"

// RequestType distinguishes the transport flavours handled by dispatch.
type RequestType string

const (
	// RequestEmpty asks a driver to bring empty baskets to a grower.
	RequestEmpty RequestType = "empty"
	// RequestFull asks a driver to pick up full baskets from a grower.
	RequestFull RequestType = "full"
	// RequestSortingDelivery is a grower-initiated delivery to the center.
	RequestSortingDelivery RequestType = "sorting_delivery"
	// RequestDeliveredBasket is a consolidated batch of completed full-basket
	// missions on its way to the sorting center.
	RequestDeliveredBasket RequestType = "delivered_basket"
)

// RequestStatus is the lifecycle state of a request.
type RequestStatus string

const (
	StatusPending             RequestStatus = "pending"
	StatusAssigned            RequestStatus = "assigned"
	StatusInProgress          RequestStatus = "in_progress"
	StatusDelivering          RequestStatus = "delivering"
	StatusInProgressToSorting RequestStatus = "in_progress_to_sorting"
	StatusCompleted           RequestStatus = "completed"
	StatusRejected            RequestStatus = "rejected"
	StatusCancelled           RequestStatus = "cancelled"
)

// Active reports whether the status occupies a driver.
func (s RequestStatus) Active() bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusDelivering, StatusInProgressToSorting:
		return true
	}
	return false
}

// Request is a single transport mission between two parties.
//
// Driver display fields are snapshotted at assignment time so the mission
// card stays stable even if the driver record changes afterwards.
type Request struct {
	ID              string        `json:"id"`
	Type            RequestType   `json:"type"`
	Status          RequestStatus `json:"status"`
	RequesterID     string        `json:"requesterId"`
	SortingCenterID string        `json:"sortingCenterId,omitempty"`
	DriverID        string        `json:"driverId,omitempty"`
	Quantity        int           `json:"quantity"`

	DriverName  string `json:"driverName,omitempty"`
	DriverPhone string `json:"driverPhone,omitempty"`
	DriverPlate string `json:"driverPlate,omitempty"`

	CreatedAt   time.Time `json:"createdAt"`
	AssignedAt  time.Time `json:"assignedAt,omitempty"`
	AcceptedAt  time.Time `json:"acceptedAt,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitempty"`

	// IsPickupConfirmed records the first confirmation step; which party
	// performs it depends on the request type.
	IsPickupConfirmed bool `json:"isPickupConfirmed"`

	// IsConsolidated marks a completed full-basket mission as already folded
	// into a delivered_basket mission.
	IsConsolidated bool `json:"isConsolidated"`

	// ConsolidatedIDs lists the missions a delivered_basket request covers.
	ConsolidatedIDs []string `json:"consolidatedIds,omitempty"`

	RejectionReason string `json:"rejectionReason,omitempty"`

	Location        LatLng        `json:"location"`
	RoutePath       []LatLng      `json:"routePath,omitempty"`
	RouteIndex      int           `json:"routeIndex"`
	CurrentPosition *LatLng       `json:"currentSimLatLng,omitempty"`
	RouteDistanceKm float64       `json:"routeDistanceKm,omitempty"`
	RouteDuration   time.Duration `json:"routeDuration,omitempty"`
}

// Consolidatable reports whether the mission is eligible to be folded into a
// delivered_basket mission.
func (r Request) Consolidatable() bool {
	return r.Type == RequestFull && r.Status == StatusCompleted && !r.IsConsolidated
}

// ClearDriver removes the assignment and the snapshotted display fields.
func (r *Request) ClearDriver() {
	r.DriverID = ""
	r.DriverName = ""
	r.DriverPhone = ""
	r.DriverPlate = ""
	r.AssignedAt = time.Time{}
}
