// Package seed builds a small demo marketplace catalog for local runs.
package seed

import (
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/discovery/internal/catalog"
	"github.com/utafrali/discovery/pkg/slug"
)

// namespace keeps generated ids stable across runs so reseeding upserts.
var namespace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9a51-2f4b9f0c7e11")

// Dataset is a set of vendors and the items they list.
type Dataset struct {
	Vendors []catalog.Vendor
	Items   []catalog.Item
}

type vendorDef struct {
	name     string
	category string
	status   string
	rating   float64
	reviews  int
}

type itemDef struct {
	vendor      string
	name        string
	description string
	category    string
	tags        []string
	price       int64 // cents
	promo       int64 // 0 when not on promotion
	stock       int
}

var vendors = []vendorDef{
	{"TechBrand", "Electronics", catalog.VendorStatusApproved, 4.6, 812},
	{"StyleCo", "Clothing", catalog.VendorStatusApproved, 4.2, 301},
	{"HomeEssentials", "Home & Kitchen", catalog.VendorStatusApproved, 4.4, 540},
	{"SportPro", "Sports & Outdoors", catalog.VendorStatusApproved, 4.1, 126},
	{"BookWorld", "Books", catalog.VendorStatusApproved, 4.8, 977},
	{"Lumière Lamps", "Home & Kitchen", catalog.VendorStatusApproved, 4.7, 64},
	{"Gadget Garage", "Electronics", catalog.VendorStatusPending, 0, 0},
	{"Knockoff Outlet", "Electronics", catalog.VendorStatusRejected, 1.2, 9},
}

var items = []itemDef{
	{"TechBrand", "Wireless Bluetooth Headphones", "Noise-cancelling over-ear headphones with 30-hour battery life.", "Electronics", []string{"audio", "bluetooth"}, 7999, 6499, 40},
	{"TechBrand", "USB-C Hub Adapter", "7-in-1 USB-C hub with HDMI 4K output and 100W power delivery.", "Electronics", []string{"usb", "adapter"}, 3499, 0, 120},
	{"TechBrand", "Mechanical Keyboard", "RGB backlit mechanical keyboard with tactile switches.", "Electronics", []string{"keyboard", "gaming"}, 8999, 0, 25},
	{"TechBrand", "4K Webcam", "Ultra HD webcam with auto-focus and privacy shutter.", "Electronics", []string{"camera", "streaming"}, 12999, 9999, 15},
	{"TechBrand", "iPhone 15 Case", "Slim protective case for iPhone 15.", "Electronics", []string{"iphone", "case"}, 1999, 0, 300},
	{"StyleCo", "Classic Cotton T-Shirt", "Everyday tee made from organic cotton.", "Clothing", []string{"cotton", "basics"}, 2499, 0, 200},
	{"StyleCo", "Slim Fit Jeans", "Stretch denim jeans with classic 5-pocket styling.", "Clothing", []string{"denim"}, 4999, 3999, 80},
	{"StyleCo", "Running Shoes", "Lightweight running shoes with responsive cushioning.", "Clothing", []string{"shoes", "running"}, 8999, 0, 60},
	{"StyleCo", "Rain Jacket", "Waterproof breathable jacket with adjustable hood.", "Clothing", []string{"outdoor"}, 7999, 0, 0},
	{"HomeEssentials", "Coffee Maker", "12-cup programmable drip coffee brewer with thermal carafe.", "Home & Kitchen", []string{"coffee", "kitchen"}, 4999, 0, 35},
	{"HomeEssentials", "Cast Iron Skillet", "Pre-seasoned 12-inch cast iron skillet.", "Home & Kitchen", []string{"cookware"}, 3499, 2999, 50},
	{"HomeEssentials", "Desk Lamp", "Adjustable LED desk lamp with warm and cool light.", "Home & Kitchen", []string{"lamp", "lighting"}, 2599, 0, 45},
	{"Lumière Lamps", "Café Pendant Lamp", "Brass pendant lamp for kitchens and cafés.", "Home & Kitchen", []string{"lamp", "pendant"}, 11999, 0, 12},
	{"Lumière Lamps", "Floor Lamp Arc", "Arched floor lamp with marble base.", "Home & Kitchen", []string{"lamp", "floor"}, 15999, 12999, 6},
	{"SportPro", "Yoga Mat Premium", "Non-slip 6mm exercise mat with alignment markings.", "Sports & Outdoors", []string{"yoga", "fitness"}, 2999, 0, 90},
	{"SportPro", "Camping Tent 4-Person", "Waterproof family tent with instant setup.", "Sports & Outdoors", []string{"camping", "tent"}, 19999, 0, 10},
	{"SportPro", "Water Bottle Insulated", "Double-wall vacuum insulated bottle.", "Sports & Outdoors", []string{"bottle"}, 2499, 1999, 150},
	{"BookWorld", "The Go Programming Language", "Comprehensive guide to Go covering fundamentals and advanced topics.", "Books", []string{"go", "programming"}, 3999, 0, 70},
	{"BookWorld", "Designing Data-Intensive Apps", "Big ideas behind reliable, scalable and maintainable data systems.", "Books", []string{"databases", "distributed"}, 4499, 0, 30},
	{"Gadget Garage", "iPhone 15 Charger", "Fast USB-C charger for iPhone 15.", "Electronics", []string{"iphone", "charger"}, 2499, 0, 100},
	{"Knockoff Outlet", "iPhone 15 Pro Replica", "Not genuine.", "Electronics", []string{"iphone"}, 9999, 0, 5},
}

// Build returns the demo catalog with timestamps spread back from now so
// recency ordering is deterministic. Ids are stable for a given name.
func Build(now time.Time) Dataset {
	byName := make(map[string]catalog.Vendor, len(vendors))

	ds := Dataset{
		Vendors: make([]catalog.Vendor, 0, len(vendors)),
		Items:   make([]catalog.Item, 0, len(items)),
	}

	for i, def := range vendors {
		s := slug.Generate(def.name)
		v := catalog.Vendor{
			ID:          id("vendor", s),
			Name:        def.name,
			Slug:        s,
			Description: def.name + " on the marketplace",
			Category:    def.category,
			Logo:        "https://cdn.example.com/vendors/" + s + ".png",
			Rating:      def.rating,
			ReviewCount: def.reviews,
			Status:      def.status,
			CreatedAt:   now.Add(-time.Duration(len(vendors)-i) * 24 * time.Hour).UTC(),
		}
		byName[def.name] = v
		ds.Vendors = append(ds.Vendors, v)
	}

	for i, def := range items {
		v := byName[def.vendor]
		s := slug.Generate(def.name)
		it := catalog.Item{
			ID:           id("item", v.Slug+"/"+s),
			Name:         def.name,
			Slug:         s,
			Description:  def.description,
			Tags:         def.tags,
			Price:        def.price,
			Stock:        def.stock,
			Image:        "https://cdn.example.com/items/" + s + ".jpg",
			Status:       catalog.ItemStatusActive,
			VendorID:     v.ID,
			VendorName:   v.Name,
			VendorLogo:   v.Logo,
			CategoryID:   slug.Generate(def.category),
			CategoryName: def.category,
			CreatedAt:    now.Add(-time.Duration(len(items)-i) * time.Hour).UTC(),
		}
		if def.promo > 0 {
			promo := def.promo
			it.PromoPrice = &promo
			it.OnPromo = true
		}
		ds.Items = append(ds.Items, it)
	}

	return ds
}

func id(kind, key string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key)).String()
}
