package pipedrive

// Pipedrive pipeline stage ids for the commercial sales pipeline.
const (
	stageProposalSent = 2
	stageSold         = 5
	stageSoldServiced = 6
)

// Pipedrive identifies custom deal fields by hash key rather than name.
const (
	keyAddress = "130f4703de6770a75cfaaee28ed42334a8200a78"
	keyCity    = "0dcd5ef507c068612473388b2b185e9ae939351b"
	keyState   = "16964aa4b6bda425f239e32862d101ffa6df311e"
	keyZip     = "5097d5ad377ff0ebbb7f7938d97eaba1c43dbad4"

	keyServiceType        = "c3f9efc6683c809448ac68ab2810d7c3bff47454"
	keyInitialPrice       = "07ab23b0095567e297c6b876bfadf1db476198ba"
	keyContractLength     = "cb430c610877746800e519f357035f7dcda4ae91"
	keyServiceInformation = "582704903c01faa0f69e1c5399c946b1e7652a32"
	keyContractValue      = "cef03fc7317c218eb91fce30f3162a68217e62ad"
	keyRecurringPrice     = "4b6813bf9a46fbe6254671f35a0fd56aa66d0d7c"
	keyFrequency          = "681fd45c0f400f46ff68b2f3f4018acf7f554279"
	keyMultiUnitProperty  = "b0c6b070617ebfe2b382a00ad48b68a5baf5af9a"
	keyUnitQuota          = "a31e28a7dcf34149a9bc13d829dd627ebd7756e3"
	keyProposalDate       = "b2987ca807369a1c4bc159b1cfa0acd5ad04296f"

	keyUpsell           = "8b3d0e240661ec4e7db9dc938ac26b4198b5bb3e"
	keyCustomerID       = "16e3271f2697f92ae207e2ef64c8d3fcd7130cc6"
	keyDateSigned       = "7b7de0d22fdc904d983e1bb7ef96279950e3bd60"
	keyServiceStartDate = "9fc4d79b1549a8acc8fa3ade34b7e9eef1445acb"
)
