package dto

// Result codes carried in the body of every client and admin response.
const (
	CodeOK = 10000

	CodeRegDuplicate   = 10010
	CodeRegFailed      = 10011
	CodeRegOversize    = 10012
	CodeLoginUnknown   = 10010
	CodeLoginExpired   = 10011
	CodeSignMissing    = 10013
	CodeSignInvalid    = 10014
	CodeCardIssueFail  = 10020
	CodeCardListEmpty  = 10021
	CodeCardDeleteFail = 10022
	CodeCardNotFound   = 10023

	CodeExpireUpdateFail = 10024
	CodeLicenseDelFail   = 10025
	CodeLicenseNotFound  = 10026
	CodeLicenseListEmpty = 10027

	CodeRedeemNoLicense = 10030
	CodeRedeemNoCard    = 10031
	CodeRedeemUsed      = 10032
	CodeRedeemFailed    = 10033

	CodeCategoryExists     = 10040
	CodeCategoryNotFound   = 10041
	CodeCategoryAssignFail = 10042
	CodeRemarkUpdateFail   = 10043

	CodeCipherGenFail    = 10050
	CodeCipherProtected  = 10051
	CodeCipherDeleteFail = 10052
	CodeCipherAssignFail = 10053
)
