// Package vectorindex stores the furniture catalog as embeddings and answers
// nearest-neighbor queries over it.
package vectorindex

// DefaultCollection is the collection the catalog is seeded into
const DefaultCollection = "furniture_products"

// Metadata keys written alongside each product document
const (
	MetaName     = "name"
	MetaCategory = "category"
	MetaStyle    = "style"
	MetaRoomType = "room_type"
)

// Product is one catalog entry. Description is the indexed document text.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Style       string
	RoomType    string
}

// Metadata returns the string metadata stored with the product's vector
func (p Product) Metadata() map[string]string {
	return map[string]string{
		MetaName:     p.Name,
		MetaCategory: p.Category,
		MetaStyle:    p.Style,
		MetaRoomType: p.RoomType,
	}
}

// Catalog is the built-in furniture catalog used by the seed command.
var Catalog = []Product{
	// Living room
	{"prod_001", "Modern Velvet Sofa", "A sleek modern three-seater velvet sofa with tapered gold legs, ideal for contemporary living rooms.", "sofa", "modern", "living room"},
	{"prod_002", "Scandinavian Fabric Couch", "Minimalist Scandinavian-style couch in light gray fabric with wooden legs, perfect for clean open spaces.", "sofa", "scandinavian", "living room"},
	{"prod_003", "Bohemian Floor Rug", "Hand-woven bohemian area rug with intricate patterns in earthy tones, adds warmth and texture.", "rug", "bohemian", "living room"},
	{"prod_004", "Industrial Arc Floor Lamp", "Matte black industrial arc floor lamp with adjustable arm, perfect for reading corners.", "lighting", "industrial", "living room"},
	{"prod_005", "Mid-Century Coffee Table", "Walnut mid-century modern coffee table with hairpin legs and magazine shelf underneath.", "table", "modern", "living room"},
	{"prod_006", "Smart 55\" OLED TV", "Ultra-thin 55-inch OLED smart TV with built-in streaming apps and voice control.", "electronics", "modern", "living room"},
	{"prod_007", "Floating Wall Shelf Set", "Set of three floating wall shelves in natural oak, great for displaying decor and books.", "shelving", "scandinavian", "living room"},
	{"prod_008", "Accent Armchair", "Tufted accent armchair in emerald green velvet with brass nailhead trim.", "chair", "modern", "living room"},

	// Bedroom
	{"prod_009", "Platform Bed Frame", "Low-profile platform bed frame in solid walnut with integrated headboard and under-bed storage.", "bed", "modern", "bedroom"},
	{"prod_010", "Minimalist Nightstand", "Two-drawer minimalist nightstand in white lacquer with soft-close drawers.", "table", "minimalist", "bedroom"},
	{"prod_011", "Linen Blackout Curtains", "Heavyweight linen blend blackout curtains in charcoal gray for a restful sleep environment.", "textile", "minimalist", "bedroom"},
	{"prod_012", "Bohemian Macramé Wall Hanging", "Large hand-knotted macramé wall hanging in natural cotton, adds boho charm to any bedroom.", "decor", "bohemian", "bedroom"},
	{"prod_013", "Scandinavian Dresser", "Six-drawer oak dresser with rounded edges and brass knobs in Scandinavian design.", "storage", "scandinavian", "bedroom"},

	// Dining room
	{"prod_014", "Contemporary Dining Table", "Extendable contemporary dining table in white marble top with brushed steel base, seats 6-8.", "table", "modern", "dining room"},
	{"prod_015", "Upholstered Dining Chair Set", "Set of four upholstered dining chairs in cream boucle fabric with oak legs.", "chair", "modern", "dining room"},
	{"prod_016", "Statement Pendant Light", "Oversized brass globe pendant light that serves as a dining room centerpiece.", "lighting", "modern", "dining room"},
	{"prod_017", "Industrial Wine Rack", "Wall-mounted industrial wine rack in wrought iron, holds 12 bottles with glass holder.", "storage", "industrial", "dining room"},

	// Kitchen
	{"prod_018", "Bar Stool Set", "Set of three adjustable-height swivel bar stools with faux leather seats and chrome base.", "chair", "modern", "kitchen"},
	{"prod_019", "Open Kitchen Shelving Unit", "Industrial-style open kitchen shelving in reclaimed wood and black iron pipe.", "shelving", "industrial", "kitchen"},
	{"prod_020", "Ceramic Herb Planter Set", "Set of four ceramic herb planters in matte white, perfect for kitchen windowsills.", "decor", "minimalist", "kitchen"},

	// Office
	{"prod_021", "Ergonomic Office Chair", "High-back ergonomic mesh office chair with lumbar support, adjustable armrests, and tilt mechanism.", "chair", "modern", "office"},
	{"prod_022", "Standing Desk", "Electric sit-stand desk with bamboo top and programmable height presets.", "table", "modern", "office"},
	{"prod_023", "Desk Lamp with Wireless Charger", "LED desk lamp with built-in wireless charging pad and adjustable color temperature.", "lighting", "modern", "office"},
	{"prod_024", "Bookshelf Unit", "Five-tier ladder bookshelf in natural bamboo with leaning design.", "shelving", "scandinavian", "office"},

	// Bathroom
	{"prod_025", "Bamboo Bath Mat", "Sustainable slatted bamboo bath mat with non-slip rubber grips.", "textile", "minimalist", "bathroom"},
	{"prod_026", "Frameless LED Mirror", "Wall-mounted frameless LED bathroom mirror with anti-fog, touch dimmer, and daylight simulation.", "decor", "modern", "bathroom"},
	{"prod_027", "Floating Vanity Unit", "Wall-mounted floating bathroom vanity in matte black with integrated basin and soft-close drawer.", "storage", "modern", "bathroom"},

	// Any room
	{"prod_028", "Smart LED Strip Lights", "WiFi-enabled RGB LED strip lights with app control and music sync, 16 million colors.", "lighting", "modern", "any"},
	{"prod_029", "Ceramic Decorative Vase Set", "Set of three handmade ceramic vases in earth tones, suitable for dried or fresh flower arrangements.", "decor", "bohemian", "any"},
	{"prod_030", "Indoor Fiddle Leaf Fig Plant", "Artificial 5-foot fiddle leaf fig tree in woven basket planter, maintenance-free greenery.", "decor", "modern", "any"},
	{"prod_031", "Modular Storage Cubes", "Stackable modular storage cubes in matte white with optional fabric drawer inserts.", "storage", "minimalist", "any"},
	{"prod_032", "Vintage Wall Clock", "Large vintage-style wall clock with Roman numerals and distressed bronze finish.", "decor", "industrial", "any"},
	{"prod_033", "Eclectic Accent Table", "Round accent side table with terrazzo top and geometric brass base.", "table", "eclectic", "any"},
	{"prod_034", "Velvet Throw Pillow Set", "Set of four velvet throw pillows in jewel tones: emerald, sapphire, amethyst, and ruby.", "textile", "modern", "any"},
	{"prod_035", "Rattan Pendant Shade", "Hand-woven rattan pendant lampshade that casts beautiful patterned shadows.", "lighting", "bohemian", "any"},
}
