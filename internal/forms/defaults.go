package forms

import "github.com/tmercier/go-bagcheck-backend/internal/domain"

func item(name, typ, def string) domain.FormItem {
	return domain.FormItem{Name: name, Type: typ, Default: def}
}

func dateItem(name, iso string) domain.FormItem {
	return domain.FormItem{Name: name, Type: "date", Default: iso}
}

// defaultVLIForm is the built-in checklist seeded for the VLI category.
// Date defaults are the expiry dates of the stocked lots at seed time.
func defaultVLIForm() []domain.FormSection {
	return []domain.FormSection{
		{
			Section: "POCHETTE PERFUSION (ROUGE)",
			Items: []domain.FormItem{
				dateItem("Cathéter 16 G (x3)", "2028-03-01"),
				dateItem("Cathéter 18 G (x3)", "2028-08-01"),
				dateItem("Cathéter 20 G (x3)", "2029-01-01"),
				dateItem("Cathéter 22 G (x3)", "2027-10-01"),
				dateItem("Cathéter 24 G (x3)", "2027-01-01"),
				dateItem("Rasoir (x1)", ""),
				dateItem("Garrot adulte (x1)", ""),
				dateItem("Compresses stériles 7,5 x 7,5 cm (x3)", "2029-08-31"),
				dateItem("Chlorhexidine alcoolique 40ml (x1)", "2027-03-31"),
				dateItem("NaCl 0,9 % 100 ml (x2)", "2026-05-30"),
				dateItem("Tégaderm (x2)", "2027-01-25"),
				dateItem("Tubulure 3 voies (x1)", "2026-07-01"),
				dateItem("Régulateur de débit (x1)", "2028-08-19"),
				dateItem("Solution hydro-alcoolique (x1)", "2028-05-31"),
				dateItem("Kit de prélèvement sanguin (x1)", "2026-04-30"),
				dateItem("Poche bilan + étiquettes patient (x1)", ""),
			},
		},
		{
			Section: "POCHETTE AMPOULIER (JAUNE)",
			Items: []domain.FormItem{
				dateItem("Seringue 5 cc luer lock (x4)", "2027-05-31"),
				dateItem("Seringue 10 cc luer lock (x2)", "2029-02-28"),
				dateItem("Aiguille IV (x2)", "2029-08-31"),
				dateItem("Aiguille à prélèvement (x2)", "2027-02-28"),
				dateItem("Aiguille IM (x2)", "2027-05-31"),
				dateItem("Paracétamol IV 1 g (x1)", "2027-03-31"),
				dateItem("Clonazepam 1 mg / 1 ml (x4)", "2028-03-31"),
				dateItem("Trinitrine 0,30 mg (x1)", "2027-03-31"),
				dateItem("Acide tranexamique 0,5 g / 5 ml (x4)", "2027-05-31"),
				dateItem("Glucose 30% 10 ml (x4)", "2026-07-31"),
				dateItem("Diazépam 10 mg / 2 ml (x2)", "2026-12-31"),
				dateItem("Amiodarone 150 mg / 3 ml (x3)", "2026-09-30"),
				dateItem("Adrénaline 5 mg / 5 ml (x4)", "2026-07-31"),
				dateItem("Adrénaline 1 mg / 1 ml (x2)", "2026-10-30"),
				dateItem("EPPI 10 ml (x2)", "2026-11-30"),
			},
		},
		{
			Section: "AMPOULIER STUPÉFIANTS — CÔTÉ ORAMORPH",
			Items: []domain.FormItem{
				dateItem("Ampoule Oramorph 30 mg / 5 ml (x4)", "2027-05-30"),
				dateItem("Seringue 5 cc (x2)", "2029-02-28"),
				dateItem("Aiguille à prélèvement (x2)", "2027-02-28"),
			},
		},
	}
}

func defaultSacISPForm() []domain.FormSection {
	return []domain.FormSection{
		{
			Section: "Dessus", Position: "Dessus du sac",
			Items: []domain.FormItem{
				item("Ampoulier (1)", "case", "true"),
				item("Numéro valise ampoulier", "texte", ""),
				item("Numéro Pharmsap", "texte", ""),
				item("Fiche de commande (1)", "case", "true"),
			},
		},
		{
			Section: "Poche latérale droite — Diagnostic", Position: "Latéral droit",
			Items: []domain.FormItem{
				item("Stéthoscope (1)", "case", "true"),
			},
		},
		{
			Section: "Poche latérale droite — Sondage gastrique", Position: "Latéral droit",
			Items: []domain.FormItem{
				item("Sonde gastrique n°14 (1)", "case", "true"),
				item("Sonde gastrique n°18 (1)", "case", "true"),
				item("Seringue à gavage 60ml embout conique (1)", "case", "true"),
				item("Poche à urine (1)", "case", "true"),
			},
		},
		{
			Section: "Poche latérale gauche — Hémorragie", Position: "Latéral gauche",
			Items: []domain.FormItem{
				item("Garrot hémorragie (2)", "nombre", "2"),
				item("Pansement compressif (2)", "nombre", "2"),
			},
		},
		{
			Section: "Solutés", Position: "Poche principale",
			Items: []domain.FormItem{
				item("NaCl 0.9% 500ml (1)", "case", "true"),
				item("Ringer Lactate 500ml (1)", "case", "true"),
				item("Glucose 5% 500ml (1)", "case", "true"),
				item("Kit Perfalgan (1)", "case", "true"),
				item("Kit NaCl 100ml (1)", "case", "true"),
				item("Kétoprofène 100ml (1)", "case", "true"),
				item("Glucose 10 250ml (1)", "case", "true"),
				item("Penthrox (1)", "case", "true"),
			},
		},
		{
			Section: "Pochette jaune — Perfusion", Position: "Poche principale",
			Items: []domain.FormItem{
				item("Kit perfusion (1)", "case", "true"),
				item("Dosette Bétadine alcoolique (1)", "case", "true"),
				item("Sparadrap (1)", "case", "true"),
				item("Garrot (1)", "case", "true"),
				item("Ciseau GESCO (1)", "case", "true"),
				item("Sachet compresses stériles (1)", "case", "true"),
				item("Bouchons à perfusion (2)", "nombre", "2"),
				item("Seringues 10ml (2)", "nombre", "2"),
				item("Trocards (2)", "nombre", "2"),
				item("Valves anti-retour (4)", "nombre", "4"),
			},
		},
		{
			Section: "Pochette rouge longue — Intubation", Position: "Poche principale",
			Items: []domain.FormItem{
				item("Tube laryngé adulte taille 4 (1)", "case", "true"),
				item("Seringue étalonnée adulte (1)", "case", "true"),
				item("Cale dents adulte (1)", "case", "true"),
				item("Tube laryngé enfant taille 2 (1)", "case", "true"),
				item("Seringue étalonnée enfant (1)", "case", "true"),
				item("Cale dents enfant (1)", "case", "true"),
				item("Manche laryngoscope (1)", "case", "true"),
				item("Lame laryngoscope UU n°3 (1)", "case", "true"),
				item("Piles de rechange (2)", "nombre", "2"),
				item("Pince de Magyll (1)", "case", "true"),
			},
		},
		{
			Section: "Pochette verte — Ventilation", Position: "Poche principale",
			Items: []domain.FormItem{
				item("Kit aérosol adulte (1)", "case", "true"),
				item("Kit aérosol enfant (1)", "case", "true"),
			},
		},
		{
			Section: "Pochette violette — Hygiène", Position: "Poche principale",
			Items: []domain.FormItem{
				item("Médinette (1)", "case", "true"),
				item("Gants UU (10)", "nombre", "10"),
				item("Sacs poubelle (2)", "nombre", "2"),
				item("Gel SHA (1)", "case", "true"),
			},
		},
	}
}

func defaultSacReserveForm() []domain.FormSection {
	return []domain.FormSection{
		{
			Section: "Solutés", Position: "Poche principale",
			Items: []domain.FormItem{
				item("Kit Perfusion (4)", "nombre", "4"),
				item("NaCl 0.9% 500ml (4)", "nombre", "4"),
				item("Kit Perfalgan (4)", "nombre", "4"),
				item("Kit NaCl 100ml (4)", "nombre", "4"),
				item("Kétoprofène 100ml (2)", "nombre", "2"),
				item("Glucose 10% 250ml (2)", "nombre", "2"),
				item("Ringer Lactate 500ml (1)", "case", "true"),
				item("Glucose 5% 500ml (1)", "case", "true"),
				item("Penthrox (1)", "case", "true"),
			},
		},
		{
			Section: "Pochette rouge longue — Intubation", Position: "Poche principale",
			Items: []domain.FormItem{
				item("Tube laryngé adulte taille 4 (1)", "case", "true"),
				item("Seringue étalonnée (1)", "case", "true"),
				item("Cale dents (1)", "case", "true"),
				item("Lame laryngoscope UU n°3 (1)", "case", "true"),
			},
		},
		{
			Section: "Poche latérale droite", Position: "Latéral droit",
			Items: []domain.FormItem{
				item("Perfuseur 3 voies (1)", "case", "true"),
				item("Bouchons (2)", "nombre", "2"),
				item("Seringues 10ml (2)", "nombre", "2"),
				item("Trocards (2)", "nombre", "2"),
				item("Valves anti-retour (2)", "nombre", "2"),
				item("Opsite (1)", "case", "true"),
				item("DASRI Médinette (1)", "case", "true"),
			},
		},
		{
			Section: "Poche latérale gauche — Aérosols", Position: "Latéral gauche",
			Items: []domain.FormItem{
				item("Kit aérosol adulte (2)", "nombre", "2"),
				item("Kit aérosol enfant (1)", "case", "true"),
			},
		},
	}
}
