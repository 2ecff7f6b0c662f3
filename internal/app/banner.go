package app

// Banner is the error shown in place of the catalogue when start-up fails.
type Banner struct {
	Heading string `json:"heading"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Class   string `json:"class"`
}

func NewBanner(err error) *Banner {
	b := &Banner{
		Heading: "Erreur de chargement",
		Message: "Une erreur s'est produite lors du chargement des données. Veuillez rafraîchir la page.",
		Class:   "alert alert-danger m-3",
	}
	if err != nil {
		b.Detail = err.Error()
	}
	return b
}
