package urlfilter

// shortcutWindowLength is the N-gram length used by the shortcut-hash
// table and its Rabin-Karp scan, fixed at 5 per the spec's resolution of
// the "N is 5 in some index builders and 6 in others" open question.
const shortcutWindowLength = 5

// rabinKarpBase is the polynomial base used for the rolling hash. Any odd
// base works; 31 is the conventional choice for byte-string hashing.
const rabinKarpBase uint32 = 31

// shortcutIndex is the shortcut-hash table described in §4.3 step 2: each
// rule is filed under the hash of its *least frequent* N-gram rather than
// its first one, so that a handful of extremely common substrings (like
// "http") don't dominate a single bucket. histogram is shared
// across every insertion so later rules see the effect of earlier ones.
type shortcutIndex struct {
	buckets   map[uint32][]int64
	histogram map[string]int
}

func newShortcutIndex() (si *shortcutIndex) {
	return &shortcutIndex{
		buckets:   make(map[uint32][]int64),
		histogram: make(map[string]int),
	}
}

// add inserts a rule's shortcut into the index. shortcut must be at least
// shortcutWindowLength bytes long.
func (si *shortcutIndex) add(shortcut string, idx int64) {
	gram := si.leastFrequentGram(shortcut)
	si.histogram[gram]++

	h := hashGram(gram)
	si.buckets[h] = append(si.buckets[h], idx)
}

// leastFrequentGram returns the shortcutWindowLength-byte substring of
// shortcut that has been used least often so far.
func (si *shortcutIndex) leastFrequentGram(shortcut string) (gram string) {
	best := shortcut[:shortcutWindowLength]
	bestCount := si.histogram[best]

	for i := 1; i+shortcutWindowLength <= len(shortcut); i++ {
		candidate := shortcut[i : i+shortcutWindowLength]
		if c := si.histogram[candidate]; c < bestCount {
			best = candidate
			bestCount = c
		}
	}

	return best
}

// hashGram hashes a fixed shortcutWindowLength-byte window using a simple
// polynomial (Horner's method) hash, the same function used incrementally
// by match's rolling scan.
func hashGram(gram string) (h uint32) {
	for i := 0; i < len(gram); i++ {
		h = h*rabinKarpBase + uint32(gram[i])
	}

	return h
}

// match slides a shortcutWindowLength-byte window across urlLower using a
// Rabin-Karp rolling hash, looking up each window's bucket, per §4.3 step 2
// of the match phase. Candidates are added to out without deduplication;
// callers dedup across all index paths at once.
func (si *shortcutIndex) match(urlLower string, out map[int64]struct{}) {
	n := len(urlLower)
	if n < shortcutWindowLength {
		return
	}

	var power uint32 = 1
	for i := 0; i < shortcutWindowLength-1; i++ {
		power *= rabinKarpBase
	}

	h := hashGram(urlLower[:shortcutWindowLength])

	for i := 0; ; i++ {
		if bucket, ok := si.buckets[h]; ok {
			for _, idx := range bucket {
				out[idx] = struct{}{}
			}
		}

		if i+shortcutWindowLength >= n {
			return
		}

		h = (h-uint32(urlLower[i])*power)*rabinKarpBase + uint32(urlLower[i+shortcutWindowLength])
	}
}
