package province

// Unknown is the region (and display value) used when nothing matched.
const Unknown = "ไม่ระบุ"

const (
	RegionNorth     = "ภาคเหนือ"
	RegionNortheast = "ภาคอีสาน"
	RegionCentral   = "ภาคกลาง"
	RegionEast      = "ภาคตะวันออก"
	RegionSouth     = "ภาคใต้"
	RegionBangkok   = "กรุงเทพและปริมณฑล"
)

type entry struct {
	name       string
	variations []string
}

// provinces is scanned in order; the first variation hit wins.
var provinces = []entry{
	// Bangkok and vicinity
	{"กรุงเทพมหานคร", []string{"กรุงเทพ", "กทม", "กทม.", "bangkok"}},
	{"นนทบุรี", []string{"นนทบุรี", "นท", "nonthaburi"}},
	{"ปทุมธานี", []string{"ปทุมธานี", "ปท", "pathum thani"}},
	{"สมุทรปราการ", []string{"สมุทรปราการ", "สป", "samut prakan"}},
	{"สมุทรสาคร", []string{"สมุทรสาคร", "สส", "samut sakhon"}},
	{"สมุทรสงคราม", []string{"สมุทรสงคราม", "สซ", "samut songkhram"}},

	// North
	{"เชียงใหม่", []string{"เชียงใหม่", "ชม", "chiang mai"}},
	{"เชียงราย", []string{"เชียงราย", "ชร", "chiang rai"}},
	{"แม่ฮ่องสอน", []string{"แม่ฮ่องสอน", "มส", "mae hong son"}},
	{"น่าน", []string{"น่าน", "นน", "nan"}},
	{"พะเยา", []string{"พะเยา", "พย", "phayao"}},
	{"แพร่", []string{"แพร่", "พร", "phrae"}},
	{"ลำปาง", []string{"ลำปาง", "ลป", "lampang"}},
	{"ลำพูน", []string{"ลำพูน", "ลพ", "lamphun"}},
	{"อุตรดิตถ์", []string{"อุตรดิตถ์", "อต", "uttaradit"}},
	{"สุโขทัย", []string{"สุโขทัย", "สท", "sukhothai"}},
	{"ตาก", []string{"ตาก", "ตก", "tak"}},
	{"กำแพงเพชร", []string{"กำแพงเพชร", "กพ", "kamphaeng phet"}},
	{"พิจิตร", []string{"พิจิตร", "พจ", "phichit"}},
	{"พิษณุโลก", []string{"พิษณุโลก", "พล", "phitsanulok"}},

	// Northeast
	{"นครราชสีมา", []string{"นครราชสีมา", "นม", "korat", "nakhon ratchasima"}},
	{"ขอนแก่น", []string{"ขอนแก่น", "ขก", "khon kaen"}},
	{"อุดรธานี", []string{"อุดรธานี", "อด", "udon thani"}},
	{"เลย", []string{"เลย", "ลย", "loei"}},
	{"หนองคาย", []string{"หนองคาย", "หนค", "nong khai"}},
	{"หนองบัวลำภู", []string{"หนองบัวลำภู", "นภ", "nong bua lam phu"}},
	{"บึงกาฬ", []string{"บึงกาฬ", "บก", "bueng kan"}},
	{"สกลนคร", []string{"สกลนคร", "สน", "sakon nakhon"}},
	{"นครพนม", []string{"นครพนม", "นพ", "nakhon phanom"}},
	{"มุกดาหาร", []string{"มุกดาหาร", "มห", "mukdahan"}},
	{"กาฬสินธุ์", []string{"กาฬสินธุ์", "กส", "kalasin"}},
	{"ร้อยเอ็ด", []string{"ร้อยเอ็ด", "รอ", "roi et"}},
	{"มหาสารคาม", []string{"มหาสารคาม", "มค", "maha sarakham"}},
	{"ยะโสธร", []string{"ยะโสธร", "ยส", "yasothon"}},
	{"อำนาจเจริญ", []string{"อำนาจเจริญ", "อจ", "amnat charoen"}},
	{"อุบลราชธานี", []string{"อุบลราชธานี", "อบ", "ubon ratchathani"}},
	{"ศีสะเกษ", []string{"ศีสะเกษ", "ศก", "si sa ket"}},
	{"สุรินทร์", []string{"สุรินทร์", "สร", "surin"}},
	{"บุรีรัมย์", []string{"บุรีรัมย์", "บร", "buriram"}},
	{"ชัยภูมิ", []string{"ชัยภูมิ", "ชย", "chaiyaphum"}},

	// Central
	{"นครสวรรค์", []string{"นครสวรรค์", "นส", "nakhon sawan"}},
	{"ชัยนาท", []string{"ชัยนาท", "ชน", "chai nat"}},
	{"สิงห์บุรี", []string{"สิงห์บุรี", "สบ", "sing buri"}},
	{"อ่างทอง", []string{"อ่างทอง", "อท", "ang thong"}},
	{"สระบุรี", []string{"สระบุรี", "สระ", "saraburi"}},
	{"ลพบุรี", []string{"ลพบุรี", "ลบ", "lopburi"}},
	{"อยุธยา", []string{"อยุธยา", "อย", "ayutthaya", "พระนครศรีอยุธยา"}},
	{"สุพรรณบุรี", []string{"สุพรรณบุรี", "สพ", "suphanburi"}},
	{"กาญจนบุรี", []string{"กาญจนบุรี", "กจ", "kanchanaburi"}},
	{"เพชรบุรี", []string{"เพชรบุรี", "พบ", "phetchaburi"}},
	{"ประจวบคีรีขันธ์", []string{"ประจวบคีรีขันธ์", "ปข", "prachuap khiri khan"}},
	{"นครปฐม", []string{"นครปฐม", "นฐ", "nakhon pathom"}},
	{"ราชบุรี", []string{"ราชบุรี", "รบ", "ratchaburi"}},

	// East
	{"ฉะเชิงเทรา", []string{"ฉะเชิงเทรา", "ฉช", "chachoengsao"}},
	{"ปราจีนบุรี", []string{"ปราจีนบุรี", "ปจ", "prachin buri"}},
	{"นครนายก", []string{"นครนายก", "นย", "nakhon nayok"}},
	{"ชลบุรี", []string{"ชลบุรี", "ชบ", "chonburi"}},
	{"ระยอง", []string{"ระยอง", "รย", "rayong"}},
	{"จันทบุรี", []string{"จันทบุรี", "จบ", "chanthaburi"}},
	{"ตราด", []string{"ตราด", "ตด", "trat"}},
	{"สระแก้ว", []string{"สระแก้ว", "สก", "sa kaeo"}},

	// South (เพชรบูรณ์ is listed here but belongs to the central region table)
	{"เพชรบูรณ์", []string{"เพชรบูรณ์", "พช", "phetchabun"}},
	{"ชุมพร", []string{"ชุมพร", "ชพ", "chumphon"}},
	{"ระนอง", []string{"ระนอง", "รน", "ranong"}},
	{"สุราษฎร์ธานี", []string{"สุราษฎร์ธานี", "สฎ", "surat thani"}},
	{"นครศรีธรรมราช", []string{"นครศรีธรรมราช", "นศ", "nakhon si thammarat"}},
	{"กระบี่", []string{"กระบี่", "กบ", "krabi"}},
	{"พังงา", []string{"พังงา", "พง", "phang nga"}},
	{"ภูเก็ต", []string{"ภูเก็ต", "ภก", "phuket"}},
	{"ตรัง", []string{"ตรัง", "ตร", "trang"}},
	{"พัทลุง", []string{"พัทลุง", "พท", "phatthalung"}},
	{"สงขลา", []string{"สงขลา", "สข", "songkhla"}},
	{"สตูล", []string{"สตูล", "สต", "satun"}},
	{"ปัตตานี", []string{"ปัตตานี", "ปต", "pattani"}},
	{"ยะลา", []string{"ยะลา", "ยล", "yala"}},
	{"นราธิวาส", []string{"นราธิวาส", "นธ", "narathiwat"}},
}

// abbreviations catches romanised shorthands the province table misses.
// Note the first key is the short form "กรุงเทพ", not the full province name.
var abbreviations = []entry{
	{"กรุงเทพ", []string{"กทม", "bkk", "bangkok", "กรุงเทพมหานคร"}},
	{"เชียงใหม่", []string{"ชม", "cm", "chiangmai"}},
	{"เชียงราย", []string{"ชร", "cr", "chiangrai"}},
	{"ขอนแก่น", []string{"ขก", "kk", "khonkaen"}},
	{"นครราชสีมา", []string{"นม", "korat", "nakhonratchasima"}},
	{"ภูเก็ต", []string{"ภก", "phuket"}},
	{"สงขลา", []string{"สข", "songkhla"}},
	{"ชลบุรี", []string{"ชบ", "chonburi", "pattaya"}},
}

var regions = []struct {
	name      string
	provinces []string
}{
	{RegionNorth, []string{
		"เชียงใหม่", "เชียงราย", "แม่ฮ่องสอน", "น่าน", "พะเยา", "แพร่",
		"ลำปาง", "ลำพูน", "อุตรดิตถ์", "สุโขทัย", "ตาก", "กำแพงเพชร",
		"พิจิตร", "พิษณุโลก",
	}},
	{RegionNortheast, []string{
		"นครราชสีมา", "ขอนแก่น", "อุดรธานี", "เลย", "หนองคาย", "หนองบัวลำภู",
		"บึงกาฬ", "สกลนคร", "นครพนม", "มุกดาหาร", "กาฬสินธุ์", "ร้อยเอ็ด",
		"มหาสารคาม", "ยะโสธร", "อำนาจเจริญ", "อุบลราชธานี", "ศีสะเกษ",
		"สุรินทร์", "บุรีรัมย์", "ชัยภูมิ",
	}},
	{RegionCentral, []string{
		"นครสวรรค์", "ชัยนาท", "สิงห์บุรี", "อ่างทอง", "สระบุรี", "ลพบุรี",
		"อยุธยา", "สุพรรณบุรี", "กาญจนบุรี", "เพชรบุรี", "ประจวบคีรีขันธ์",
		"นครปฐม", "ราชบุรี", "เพชรบูรณ์",
	}},
	{RegionEast, []string{
		"ฉะเชิงเทรา", "ปราจีนบุรี", "นครนายก", "ชลบุรี", "ระยอง",
		"จันทบุรี", "ตราด", "สระแก้ว",
	}},
	{RegionSouth, []string{
		"ชุมพร", "ระนอง", "สุราษฎร์ธานี", "นครศรีธรรมราช", "กระบี่",
		"พังงา", "ภูเก็ต", "ตรัง", "พัทลุง", "สงขลา", "สตูล",
		"ปัตตานี", "ยะลา", "นราธิวาส",
	}},
	{RegionBangkok, []string{
		"กรุงเทพมหานคร", "นนทบุรี", "ปทุมธานี", "สมุทรปราการ",
		"สมุทรสาคร", "สมุทรสงคราม",
	}},
}

type mapped struct {
	province string
	region   string
}

// apiThaiNames maps the Thai name inside "th-10:Bangkok (กรุงเทพมหานคร)".
var apiThaiNames = map[string]mapped{
	"กรุงเทพมหานคร": {"กรุงเทพมหานคร", RegionBangkok},
	"นนทบุรี":       {"นนทบุรี", RegionBangkok},
	"ปทุมธานี":      {"ปทุมธานี", RegionBangkok},
	"สมุทรปราการ":   {"สมุทรปราการ", RegionBangkok},
	"สมุทรสาคร":     {"สมุทรสาคร", RegionBangkok},
	"สมุทรสงคราม":   {"สมุทรสงคราม", RegionBangkok},
	"เชียงใหม่":     {"เชียงใหม่", RegionNorth},
	"เชียงราย":      {"เชียงราย", RegionNorth},
	"นครราชสีมา":    {"นครราชสีมา", RegionNortheast},
	"ขอนแก่น":       {"ขอนแก่น", RegionNortheast},
	"ภูเก็ต":        {"ภูเก็ต", RegionSouth},
	"สงขลา":         {"สงขลา", RegionSouth},
	"ชลบุรี":        {"ชลบุรี", RegionEast},
	"ระยอง":         {"ระยอง", RegionEast},
	"นครปฐม":        {"นครปฐม", RegionCentral},
	"กาญจนบุรี":     {"กาญจนบุรี", RegionCentral},
	"สระบุรี":       {"สระบุรี", RegionCentral},
	"นครสวรรค์":     {"นครสวรรค์", RegionCentral},
	"ลพบุรี":        {"ลพบุรี", RegionCentral},
}

var apiEnglishNames = map[string]mapped{
	"Bangkok":           {"กรุงเทพมหานคร", RegionBangkok},
	"Chiang Mai":        {"เชียงใหม่", RegionNorth},
	"Chiang Rai":        {"เชียงราย", RegionNorth},
	"Phuket":            {"ภูเก็ต", RegionSouth},
	"Khon Kaen":         {"ขอนแก่น", RegionNortheast},
	"Nakhon Ratchasima": {"นครราชสีมา", RegionNortheast},
	"Chonburi":          {"ชลบุรี", RegionEast},
	"Songkhla":          {"สงขลา", RegionSouth},
}
