package huffman

// terminal is the flush symbol written after every compressed chunk. It is
// stored in the tree as -256 and must be tested before the decoded-byte case
// because byte zero is stored as 0.
const terminal = -256

// tree is the fixed decode tree: 256 internal nodes, two slots each. Slot
// node*2 is the 0 branch and node*2+1 the 1 branch. A positive value is the
// next node, terminal is the flush symbol, any other value v <= 0 decodes the
// byte -v.
var tree = [512]int16{
	1, 2, 0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	16, 17, 18, 19, 20, -256, 21, 22, 23, 24, -64, 25, 26, 27, 28, 29,
	30, 31, 32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, -1, 43, 44,
	45, -51, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56, 57, -2, 58,
	59, 60, 61, 62, -5, 63, -14, 64, 65, -32, 66, -119, 67, 68, 69, 70,
	71, 72, 73, -6, 74, 75, 76, 77, 78, 79, 80, -20, 81, 82, -144, 83,
	-131, 84, -7, 85, -3, 86, 87, 88, 89, 90, 91, 92, 93, 94, 95, -26,
	96, -105, 97, -114, 98, 99, 100, 101, 102, 103, 104, -117, 105, -21, 106, 107,
	-10, -15, 108, 109, 110, 111, 112, 113, -255, 114, 115, 116, -116, 117, 118, -110,
	119, 120, -97, -4, -111, -101, 121, 122, -104, 123, 124, 125, 126, 127, 128, 129,
	130, 131, 132, -28, -37, -17, -84, 133, -9, 134, -22, 135, -108, 136, -132, 137,
	138, -34, 139, -16, 140, 141, 142, 143, -115, 144, 145, -11, 146, -29, 147, -23,
	148, 149, 150, 151, 152, -99, 153, 154, 155, -30, 156, 157, 158, 159, -65, -13,
	-145, 160, -66, 161, 162, 163, 164, -19, 165, -112, 166, 167, 168, 169, 170, 171,
	-234, -109, 172, 173, -31, 174, 175, -120, 176, 177, 178, 179, -8, 180, -100, 181,
	182, 183, 184, 185, 186, 187, -42, 188, -80, -63, -58, -72, -85, -75, -118, -62,
	-77, -89, 189, -69, -27, -71, 190, -35, -107, 191, 192, -149, -73, 193, -121, 194,
	-76, 195, 196, -60, 197, 198, 199, -103, 200, -127, 201, -46, 202, -160, -102, 203,
	204, 205, 206, 207, 208, 209, 210, 211, -49, 212, 213, 214, 215, 216, -88, -106,
	217, 218, -91, 219, 220, 221, -45, -133, 222, -53, -130, 223, 224, 225, -192, -86,
	226, -54, -90, 227, -40, -122, -41, -48, -113, 228, -123, -52, -81, -163, 229, -248,
	230, -44, -87, -56, 231, -82, 232, -74, -129, 233, -33, -94, 234, -70, -50, -24,
	-128, -55, 235, 236, -68, -12, 237, -98, 238, -67, -57, 239, -18, -83, -25, 240,
	-134, -59, -178, -79, -61, 241, -78, 242, -141, -155, -205, -136, -237, -158, -235, -137,
	-208, -140, -253, -215, -125, -43, -38, -242, -238, -162, -251, 243, -124, -187, -39, -135,
	244, 245, -36, -161, 246, -241, 247, 248, -95, -151, -225, -96, -93, -92, 249, 250,
	-159, -148, 251, 252, 253, 254, 255, -47, -197, -191, -216, -169, -217, -230, -249, -190,
	-220, -199, -218, -193, -164, -184, -250, -173, -181, -202, -221, -203, -171, -246, -143, -244,
	-212, -175, -177, -200, -239, -219, -211, -232, -170, -195, -185, -172, -210, -165, -156, -176,
	-254, -153, -209, -154, -207, -227, -201, -152, -147, -204, -146, -240, -206, -138, -214, -142,
	-243, -126, -236, -139, -157, -150, -247, -245, -186, -180, -182, -223, -179, -188, -222, -198,
	-166, -252, -189, -174, -167, -231, -233, -183, -226, -196, -194, -224, -168, -213, -229, -228,
}
