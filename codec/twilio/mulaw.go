package twilio

import "encoding/binary"

const (
	mulawBias = 0x84
	mulawClip = 32635
)

var mulawDecodeTable = [256]int16{
	-32124, -31100, -30076, -29052, -28028, -27004, -25980, -24956,
	-23932, -22908, -21884, -20860, -19836, -18812, -17788, -16764,
	-15996, -15484, -14972, -14460, -13948, -13436, -12924, -12412,
	-11900, -11388, -10876, -10364, -9852, -9340, -8828, -8316,
	-7932, -7676, -7420, -7164, -6908, -6652, -6396, -6140,
	-5884, -5628, -5372, -5116, -4860, -4604, -4348, -4092,
	-3900, -3772, -3644, -3516, -3388, -3260, -3132, -3004,
	-2876, -2748, -2620, -2492, -2364, -2236, -2108, -1980,
	-1884, -1820, -1756, -1692, -1628, -1564, -1500, -1436,
	-1372, -1308, -1244, -1180, -1116, -1052, -988, -924,
	-876, -844, -812, -780, -748, -716, -684, -652,
	-620, -588, -556, -524, -492, -460, -428, -396,
	-372, -356, -340, -324, -308, -292, -276, -260,
	-244, -228, -212, -196, -180, -164, -148, -132,
	-120, -112, -104, -96, -88, -80, -72, -64,
	-56, -48, -40, -32, -24, -16, -8, 0,
	32124, 31100, 30076, 29052, 28028, 27004, 25980, 24956,
	23932, 22908, 21884, 20860, 19836, 18812, 17788, 16764,
	15996, 15484, 14972, 14460, 13948, 13436, 12924, 12412,
	11900, 11388, 10876, 10364, 9852, 9340, 8828, 8316,
	7932, 7676, 7420, 7164, 6908, 6652, 6396, 6140,
	5884, 5628, 5372, 5116, 4860, 4604, 4348, 4092,
	3900, 3772, 3644, 3516, 3388, 3260, 3132, 3004,
	2876, 2748, 2620, 2492, 2364, 2236, 2108, 1980,
	1884, 1820, 1756, 1692, 1628, 1564, 1500, 1436,
	1372, 1308, 1244, 1180, 1116, 1052, 988, 924,
	876, 844, 812, 780, 748, 716, 684, 652,
	620, 588, 556, 524, 492, 460, 428, 396,
	372, 356, 340, 324, 308, 292, 276, 260,
	244, 228, 212, 196, 180, 164, 148, 132,
	120, 112, 104, 96, 88, 80, 72, 64,
	56, 48, 40, 32, 24, 16, 8, 0,
}

func mulawDecode(b byte) int16 { return mulawDecodeTable[b] }

func mulawEncode(pcm int16) byte {
	sign := uint8(0)
	if pcm < 0 {
		sign = 0x80
		pcm = -pcm
	}
	if pcm > mulawClip {
		pcm = mulawClip
	}
	pcm += mulawBias

	var exponent, mantissa uint8
	switch {
	case pcm >= 0x4000:
		exponent, mantissa = 7, uint8((pcm>>10)&0x0F)
	case pcm >= 0x2000:
		exponent, mantissa = 6, uint8((pcm>>9)&0x0F)
	case pcm >= 0x1000:
		exponent, mantissa = 5, uint8((pcm>>8)&0x0F)
	case pcm >= 0x800:
		exponent, mantissa = 4, uint8((pcm>>7)&0x0F)
	case pcm >= 0x400:
		exponent, mantissa = 3, uint8((pcm>>6)&0x0F)
	case pcm >= 0x200:
		exponent, mantissa = 2, uint8((pcm>>5)&0x0F)
	case pcm >= 0x100:
		exponent, mantissa = 1, uint8((pcm>>4)&0x0F)
	default:
		exponent, mantissa = 0, uint8((pcm>>3)&0x0F)
	}

	return ^(sign | (exponent << 4) | mantissa)
}

// MulawToPCM16 decodes 8-bit mu-law samples to little-endian PCM16 bytes.
func MulawToPCM16(mulaw []byte) []byte {
	out := make([]byte, len(mulaw)*2)
	for i, b := range mulaw {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(mulawDecode(b)))
	}
	return out
}

// PCM16ToMulaw encodes little-endian PCM16 bytes to 8-bit mu-law samples.
func PCM16ToMulaw(pcm []byte) []byte {
	n := len(pcm) / 2
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		out[i] = mulawEncode(sample)
	}
	return out
}

// Resample performs linear-interpolation resampling of little-endian PCM16
// bytes from inputRate to outputRate.
func Resample(pcm []byte, inputRate, outputRate int) []byte {
	if inputRate == outputRate || len(pcm) < 2 {
		return pcm
	}
	in := make([]int16, len(pcm)/2)
	for i := range in {
		in[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}

	ratio := float64(inputRate) / float64(outputRate)
	outLen := int(float64(len(in)) / ratio)
	out := make([]int16, outLen)
	for i := range out {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)
		if srcIdx+1 < len(in) {
			s1, s2 := float64(in[srcIdx]), float64(in[srcIdx+1])
			out[i] = int16(s1 + (s2-s1)*frac)
		} else if srcIdx < len(in) {
			out[i] = in[srcIdx]
		}
	}

	raw := make([]byte, len(out)*2)
	for i, v := range out {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(v))
	}
	return raw
}
