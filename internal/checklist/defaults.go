package checklist

// Built-in definitions used when no stored definition exists for a key.
var defaultLists = map[Key]struct {
	title string
	items []Item
}{
	{Activity: "teambox", ListType: "nulstil"}: {
		title: "Nulstil Box",
		items: []Item{
			{ID: "n-box", Text: "ESCAPEBOX", IsDivider: true},
			{ID: "n-b1", Text: "Brief", Subtext: "Tjek der ikke er skrevet på det"},
			{ID: "n-b2", Text: "Blok", Subtext: "Tjek der ikke er skrevet på siderne"},
			{ID: "n-b3", Text: "Kuglepen"},
			{ID: "n-b4", Text: "Rød Kuvert", Subtext: "Tjek den er TOM før start"},
			{ID: "n-b5", Text: "Kodelås 3593", Subtext: "Tjek den er nulstillet"},
			{ID: "n-b6", Text: "Kodelås 4 cifre - 1375", Subtext: "Tjek den er nulstillet"},
			{ID: "n-r1", Text: "RUM 1", IsDivider: true},
			{ID: "n-r1-1", Text: "Kortmåler", Subtext: "Tjek den er nulstillet"},
			{ID: "n-r1-2", Text: "Vandflaske (kode 130)", Subtext: "Tjek den åbner + der er vand i"},
			{ID: "n-r1-3", Text: "Sæt koden til \"random\""},
			{ID: "n-r1-4", Text: "Pensel"},
			{ID: "n-r1-5", Text: "Papir med \"missil etc.\"", Subtext: "Tjek der ikke er skrevet på"},
			{ID: "n-r1-6", Text: "Kodehjul", Subtext: "Drej det til tilfældig position"},
			{ID: "n-r1-7", Text: "Kuvert med \"frimærke\"", Subtext: "Tjek den er tom ved start"},
			{ID: "n-r1-8", Text: "Papirsflyver"},
			{ID: "n-r1-9", Text: "Ledere med flag"},
			{ID: "n-r1-10", Text: "Tank"},
			{ID: "n-r1-11", Text: "Sænke slagskib"},
			{ID: "n-r1-12", Text: "Filmstrimmel"},
			{ID: "n-r2", Text: "RUM 2", IsDivider: true},
			{ID: "n-r2-1", Text: "Kode \"retning\"", Subtext: "Ned/Venstre/Op"},
			{ID: "n-r2-2", Text: "Hvide låse", Subtext: "Pres 2 gange på \"bøjle\" for nulstilling"},
			{ID: "n-r2-3", Text: "Bogstaver med huller", Subtext: "Tjek der IKKE er skrevet på"},
			{ID: "n-r2-4", Text: "Google Translate", Subtext: "Tjek der IKKE er skrevet på"},
			{ID: "n-r2-5", Text: "Puzzle", Subtext: "Find evt. manglende brikker"},
			{ID: "n-r3", Text: "RUM 3", IsDivider: true},
			{ID: "n-r3-1", Text: "Højtaler", Subtext: "Sæt frekvens til ca. 92.0"},
			{ID: "n-r3-2", Text: "Tjek højtaler MORSER"},
			{ID: "n-r3-3", Text: "Drej frekvens helt til venstre igen"},
			{ID: "n-r3-4", Text: "FJERN BATTERIER/SLUK POWERBANK", Subtext: "Skal den lades?"},
			{ID: "n-r3-5", Text: "Kort med MORSE", Subtext: "Tjek der IKKE er skrevet på"},
			{ID: "n-r3-6", Text: "Kæden", Subtext: "Tjek låst i nederste + yderste led"},
			{ID: "n-r3-7", Text: "Hængelås kode 555"},
			{ID: "n-r4", Text: "RUM 4", IsDivider: true},
			{ID: "n-r4-1", Text: "Penge", Subtext: "9 sedler (8 er OK): 5,10,50,100,200,500,1000,2000,5000"},
			{ID: "n-r4-2", Text: "Labyrint", Subtext: "Tjek der IKKE er skrevet på papir"},
			{ID: "n-r4-3", Text: "Overhead", Subtext: "Tjek der ikke er skrevet på + placer print BAG"},
			{ID: "n-r4-4", Text: "Tjek at låg er låst foran i hullet"},
			{ID: "n-r4-5", Text: "Morselås – Kode MORSE", Subtext: "\"random\" ved låsning"},
			{ID: "n-r4-6", Text: "HJULLÅS – LÅS DENNE"},
			{ID: "n-r4-7", Text: "Hvid Kuvert"},
		},
	},
	{Activity: "teamsegway", ListType: "afgang"}: {
		title: "Afgang",
		items: []Item{
			{ID: "s-segways", Text: "SEGWAYS", IsDivider: true},
			{ID: "sa1", Text: "X stk. Segway jf. App - tjek hvilken model (I2 eller X2)", Important: true},
			{ID: "sa2", Text: "Tag en reserve med hvis ledigt", Important: true},
			{ID: "sa3", Text: "Check alle kan starte", Important: true},
			{ID: "sa4", Text: "Tjek batteri i noeglerne paa styret - ellers giv besked", Warning: true},
			{ID: "s-hjelme", Text: "HJELME", IsDivider: true},
			{ID: "sh1", Text: "Hjelmkasser (en farve pr. hold)"},
			{ID: "s-clipboard", Text: "ROEDT CLIPBOARD", IsDivider: true},
			{ID: "sc1", Text: "Pointskemaer - fyld op hvis der mangler"},
			{ID: "sc2", Text: "Kuglepen"},
			{ID: "sc3", Text: "Keglesaet"},
			{ID: "sc4", Text: "+5 stk. laminerede A5 kort med \"The Sequenze\""},
			{ID: "s-andet", Text: "ANDET", IsDivider: true},
			{ID: "so1", Text: "1 stk. hoejt cafebord til point"},
			{ID: "so2", Text: "1 stk. MUSIKAFSPILLER"},
			{ID: "s-overvej", Text: "OVERVEJ OGSAA", IsDivider: true},
			{ID: "sov1", Text: "I tilfaelde af regn - 1 stk. Telt", Warning: true},
		},
	},
	{Activity: "teamsegway", ListType: "hjemkomst"}: {
		title: "Hjemkomst",
		items: []Item{
			{ID: "h-segways", Text: "SEGWAYS", IsDivider: true},
			{ID: "hs1", Text: "Segway SKAL toerres af", Important: true},
			{ID: "hs2", Text: "Alle Segway skal saettes til opladning", Important: true},
			{ID: "hs3", Text: "Tjek begge dioder paa basen lyser konstant groent", Important: true},
			{ID: "hs4", Text: "Blinker de roedt - giv besked!", Warning: true},
			{ID: "hs5", Text: "Blinker de 2 groenne = opladt (OK)"},
			{ID: "hs6", Text: "Lad dem altid blive paa stroem"},
			{ID: "h-hjelme", Text: "HJELME", IsDivider: true},
			{ID: "hh1", Text: "Alle spaender paa hjelme saettes sammen", Important: true},
			{ID: "hh2", Text: "Mangler nogen spaender - giv besked", Warning: true},
			{ID: "hh3", Text: "Indmad i hjelmene desinficeres med hjelmspray (gult laag)"},
			{ID: "hh4", Text: "Laag til hjelme holdes aaben paa lageret"},
			{ID: "h-andet", Text: "ANDET", IsDivider: true},
			{ID: "ha1", Text: "Evt. vaade kegler skal bredes ud"},
			{ID: "ha2", Text: "Alle brugte pointskemaer smides ud - nye saettes i!"},
			{ID: "h-fejl", Text: "FEJL & MANGLER", IsDivider: true},
			{ID: "hf1", Text: "Fejl/mangler skrives i evalueringen", Important: true},
			{ID: "hf2", Text: "Ved kritisk defekt gear: Ring ASAP saa det kan fixes", Important: true},
		},
	},
}

// DefaultList returns the built-in definition for key, if there is one.
func DefaultList(key Key) (*List, bool) {
	def, ok := defaultLists[key]
	if !ok {
		return nil, false
	}
	items := make([]Item, len(def.items))
	copy(items, def.items)
	return NewList(key, def.title, items), true
}
