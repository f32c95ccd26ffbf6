package domain

// Vehicle is one registry record: which GPS unit a vehicle carries, which
// provider serves that unit, and how the vehicle is displayed.
type Vehicle struct {
	ID          int
	GPSDeviceID int
	Name        string
	Provider    string
	Color       string
}
