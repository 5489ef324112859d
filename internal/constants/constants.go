package constants

const (
	Create   = "CREATE"
	Update   = "UPDATE"
	Delete   = "DELETE"
	Register = "REGISTER"
	Login    = "LOGIN"
	Logout   = "LOGOUT"
	Borrow   = "BORROW"
	Return   = "RETURN"
	Notify   = "NOTIFY"
)
